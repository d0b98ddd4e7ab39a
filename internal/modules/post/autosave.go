package post

import (
	"fmt"

	"github.com/nagisa-works/inkstone/internal/models"
	"github.com/nagisa-works/inkstone/internal/modules/autosave"
)

// NewAutosaveSaver builds the save function backing the autosave
// session for slug. A save against a post that no longer exists is an
// error, so the session surfaces it instead of recording a phantom
// save. A payload that renames the post closes the session: it is
// keyed by the old slug, and the editor reopens under the new one.
func NewAutosaveSaver(svc *Service, sessions *autosave.Manager, slug string) autosave.SaveFunc {
	return func(p autosave.Payload) error {
		updated, verr, err := svc.Update(slug, p.Content, models.VersionTypeAuto)
		if err != nil {
			return err
		}
		if verr != nil {
			return verr
		}
		if updated == nil {
			return fmt.Errorf("post %q no longer exists", slug)
		}
		if updated.Slug != slug && sessions != nil {
			sessions.Drop(slug)
		}
		return nil
	}
}

package stubapi

import (
	"fmt"
	"strings"

	"github.com/renzo/client/internal/models"
)

// defaultSkillRating is the rating the production backend assigns when its
// rating model is unavailable. The stub never calls a model.
const defaultSkillRating = 7.0

func generateBio(profileType models.ProfileType, tags []string) string {
	if len(tags) > 3 {
		tags = tags[:3]
	}
	return fmt.Sprintf("Passionate %s with expertise in %s.", profileType, strings.Join(tags, ", "))
}

func generateVideoTags(category models.Category) []string {
	return []string{"performance", "talent", string(category)}
}

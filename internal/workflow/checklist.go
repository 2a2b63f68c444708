package workflow

import "ethics-review-service/internal/models"

// AllMandatoryChecked reports whether every mandatory document in the set has
// been checked by office staff. An application with zero mandatory documents
// trivially satisfies the predicate. Total over any document set.
func AllMandatoryChecked(documents []models.Document) bool {
	for _, doc := range documents {
		if doc.IsMandatory && !doc.Checked {
			return false
		}
	}
	return true
}

package workflow

import (
	"testing"
	"time"

	"ethics-review-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func doc(docType string, mandatory, checked bool) models.Document {
	return models.Document{
		DocumentType: docType,
		IsMandatory:  mandatory,
		Checked:      checked,
		UploadDate:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestAllMandatoryChecked_EmptySet(t *testing.T) {
	assert.True(t, AllMandatoryChecked(nil))
	assert.True(t, AllMandatoryChecked([]models.Document{}))
}

func TestAllMandatoryChecked_NoMandatoryDocuments(t *testing.T) {
	docs := []models.Document{
		doc("cv", false, false),
		doc("cover-letter", false, true),
	}
	assert.True(t, AllMandatoryChecked(docs))
}

func TestAllMandatoryChecked_AllChecked(t *testing.T) {
	docs := []models.Document{
		doc("protocol", true, true),
		doc("consent-form", true, true),
		doc("cv", false, false),
	}
	assert.True(t, AllMandatoryChecked(docs))
}

func TestAllMandatoryChecked_OneUnchecked(t *testing.T) {
	docs := []models.Document{
		doc("protocol", true, true),
		doc("consent-form", true, false),
	}
	assert.False(t, AllMandatoryChecked(docs))
}

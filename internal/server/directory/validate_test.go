package directory

import (
	"testing"

	"github.com/dmitrijs2005/ologd/internal/common"
	"github.com/dmitrijs2005/ologd/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *models.Entry
		wantErr bool
	}{
		{"nil payload", nil, true},
		{"zero id", &models.Entry{Owner: "ops"}, true},
		{"empty owner", &models.Entry{ID: 1}, true},
		{"valid", &models.Entry{ID: 1, Owner: "ops"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEntry(tt.entry)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, common.KindBadRequest, common.KindOf(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateEntries_StopsAtFirstInvalid(t *testing.T) {
	err := validateEntries([]*models.Entry{
		{ID: 1, Owner: "ops"},
		{ID: 2}, // missing owner
		nil,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'2'")
}

func TestValidateLogbook(t *testing.T) {
	tests := []struct {
		name    string
		logbook *models.Logbook
		wantErr bool
	}{
		{"nil payload", nil, true},
		{"empty name", &models.Logbook{Owner: "ops"}, true},
		{"empty owner", &models.Logbook{Name: "A"}, true},
		{"valid", &models.Logbook{Name: "A", Owner: "ops"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLogbook(tt.logbook)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, common.KindBadRequest, common.KindOf(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateTag(t *testing.T) {
	require.Error(t, validateTag(nil))
	require.Error(t, validateTag(&models.Tag{}))
	require.NoError(t, validateTag(&models.Tag{Name: "fault"}))
}

func TestCheckIDMatches(t *testing.T) {
	// nil payload is deferred to the payload validators
	require.NoError(t, checkIDMatches(7, nil))

	require.NoError(t, checkIDMatches(7, &models.Entry{ID: 7}))

	err := checkIDMatches(7, &models.Entry{ID: 8})
	require.Error(t, err)
	assert.Equal(t, common.KindBadRequest, common.KindOf(err))
}

func TestCheckNameMatches(t *testing.T) {
	require.NoError(t, checkLogbookNameMatches("A", &models.Logbook{Name: "A"}))
	require.Error(t, checkLogbookNameMatches("A", &models.Logbook{Name: "B"}))

	require.NoError(t, checkTagNameMatches("fault", &models.Tag{Name: "fault"}))
	require.Error(t, checkTagNameMatches("fault", &models.Tag{Name: "rf"}))
}

func TestValidateAssociatedEntryIDs(t *testing.T) {
	require.NoError(t, validateAssociatedEntryIDs(nil))
	require.NoError(t, validateAssociatedEntryIDs([]*models.Entry{{ID: 1}, {ID: 2}}))
	require.Error(t, validateAssociatedEntryIDs([]*models.Entry{{ID: 1}, {}}))
	require.Error(t, validateAssociatedEntryIDs([]*models.Entry{nil}))
}

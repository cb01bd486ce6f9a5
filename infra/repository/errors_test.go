package repository

import (
	"errors"
	"testing"

	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	t.Parallel()
	other := errors.New("connection reset")

	tests := []struct {
		name  string
		input error
		want  error
	}{
		{name: "nil stays nil", input: nil, want: nil},
		{name: "record not found", input: gorm.ErrRecordNotFound, want: domain.ErrNotFound},
		{name: "duplicate key", input: gorm.ErrDuplicatedKey, want: domain.ErrAlreadyExists},
		{name: "joined not found", input: errors.Join(errors.New("outer"), gorm.ErrRecordNotFound), want: domain.ErrNotFound},
		{name: "other errors are kept", input: other, want: other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := MapError("get schedule", tt.input)
			if tt.want == nil {
				require.NoError(t, got)
				return
			}
			require.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), "get schedule: ")
		})
	}
}

func TestAffected(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, Affected("delete", &gorm.DB{RowsAffected: 0}), domain.ErrNotFound)
	assert.NoError(t, Affected("delete", &gorm.DB{RowsAffected: 1}))
	assert.ErrorIs(t, Affected("delete", &gorm.DB{Error: gorm.ErrRecordNotFound}), domain.ErrNotFound)
}

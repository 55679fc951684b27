package service

import (
	"context"
	"os"
	"testing"

	"parkovka/internal/models"
	"parkovka/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupVisitorService(t *testing.T) *VisitorService {
	logger := zerolog.New(os.Stdout)
	st, err := store.New(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewVisitorService(st, &logger)
}

func TestRegisterVisitor(t *testing.T) {
	svc := setupVisitorService(t)
	ctx := context.Background()

	v, err := svc.Register(ctx, "ivan", "Guest One", "A001AA")
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)

	visitors, err := svc.GetVisitors(ctx, "ivan")
	require.NoError(t, err)
	require.Len(t, visitors, 1)
	assert.Equal(t, "Guest One", visitors[0].Name)
}

func TestRegisterVisitorValidation(t *testing.T) {
	svc := setupVisitorService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "Guest", "")
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = svc.Register(ctx, "ivan", "", "")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestRegisterVisitorCap(t *testing.T) {
	svc := setupVisitorService(t)
	ctx := context.Background()

	for i := 0; i < models.MaxVisitorsPerResident; i++ {
		_, err := svc.Register(ctx, "ivan", "Guest", "")
		require.NoError(t, err)
	}

	_, err := svc.Register(ctx, "ivan", "Guest", "")
	assert.ErrorIs(t, err, store.ErrVisitorCapExceeded)
}

package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchoolIDRoundTrip(t *testing.T) {
	ctx := WithSchool(context.Background(), 42)

	id, err := SchoolID(ctx)
	require.NoError(t, err)
	require.Equal(t, uint(42), id)
}

func TestSchoolIDMissing(t *testing.T) {
	_, err := SchoolID(context.Background())
	require.ErrorIs(t, err, ErrMissingTenant)

	_, err = SchoolID(WithSchool(context.Background(), 0))
	require.ErrorIs(t, err, ErrMissingTenant, "zero school id is not a scope")
}

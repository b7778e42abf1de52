package referral

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReachedMilestone(t *testing.T) {
	var rewarded []int
	for n := 1; n <= 10; n++ {
		if ReachedMilestone(n, 3) {
			rewarded = append(rewarded, n)
		}
	}
	assert.Equal(t, []int{3, 6, 9}, rewarded)

	assert.False(t, ReachedMilestone(0, 3))
	assert.False(t, ReachedMilestone(4, 0))
	assert.True(t, ReachedMilestone(1, 1))
}

func TestRewardCode(t *testing.T) {
	pattern := regexp.MustCompile(`^REF-[0-9A-F]{8}$`)
	a, b := rewardCode(), rewardCode()

	assert.Regexp(t, pattern, a)
	assert.NotEqual(t, a, b)
}

func TestValidate(t *testing.T) {
	req := RegisterRequest{Email: "  Ada@Example.COM ", Name: " Ada ", ReferralCode: " abc123 "}
	require.NoError(t, validate(&req))
	assert.Equal(t, "ada@example.com", req.Email)
	assert.Equal(t, "Ada", req.Name)
	assert.Equal(t, "ABC123", req.ReferralCode)

	for _, bad := range []RegisterRequest{
		{Email: "", Name: "Ada"},
		{Email: "not-an-email", Name: "Ada"},
		{Email: "ada@example.com", Name: "  "},
	} {
		err := validate(&bad)
		assert.True(t, errors.Is(err, ErrInvalidRegistration), "%+v", bad)
	}
}

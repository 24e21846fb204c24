package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/cv-screener/internal/profile"
)

func TestDefaultWeightsSumToOne(t *testing.T) {
	t.Parallel()

	for mode, w := range map[Mode]Weights{
		ModeStandard: DefaultStandardWeights(),
		ModeEnhanced: DefaultEnhancedWeights(),
	} {
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "mode %s", mode)
		assert.NoError(t, w.Validate(mode))
		assert.Len(t, w, len(Dimensions(mode)))
	}
}

func TestDefaultEnhancedWeightsKeepOrder(t *testing.T) {
	t.Parallel()

	w := DefaultEnhancedWeights()
	assert.InDelta(t, 0.15, w[SkillsMatch], 1e-9)
	assert.InDelta(t, 0.14, w[PlatformExpertise], 1e-9)
	assert.InDelta(t, 0.014, w[ExecutivePresence], 1e-9)

	order := enhancedCategories
	for i := 1; i < len(order); i++ {
		assert.GreaterOrEqual(t, w[order[i-1]], w[order[i]], "%s before %s", order[i-1], order[i])
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Mode
	}{
		{in: "", want: ModeStandard},
		{in: "standard", want: ModeStandard},
		{in: " Enhanced ", want: ModeEnhanced},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseMode("turbo")
	var verr *profile.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "mode", verr.Field)
}

func TestRecommend(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()
	assert.Equal(t, StrongMatch, th.Recommend(70))
	assert.Equal(t, StrongMatch, th.Recommend(100))
	assert.Equal(t, ModerateMatch, th.Recommend(69.9))
	assert.Equal(t, ModerateMatch, th.Recommend(50))
	assert.Equal(t, WeakMatch, th.Recommend(49.9))
	assert.Equal(t, WeakMatch, th.Recommend(0))
}

func TestScoringErrorMessage(t *testing.T) {
	t.Parallel()

	err := Weights{SkillsMatch: 1}.Validate(ModeStandard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scoring configuration invalid")
	assert.Contains(t, err.Error(), ExperienceMatch)
}

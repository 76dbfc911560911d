package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrTokenNotFound,
		ErrAPIRequest,
		ErrAPIResponse,
		ErrCacheFormat,
		ErrWebhookConfig,
	}
	for i := 0; i < len(sentinels); i++ {
		assert.NotEmpty(t, sentinels[i].Error())

		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinel errors should be distinct: %q vs %q", sentinels[i], sentinels[j])
		}
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(KindFatal, nil))
}

func TestKindOf_Annotated(t *testing.T) {
	err := Wrap(KindFatal, stderrors.New("boom"))

	k, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindFatal, k)
}

func TestKindOf_Unannotated(t *testing.T) {
	k, ok := KindOf(stderrors.New("boom"))
	assert.False(t, ok)
	assert.Equal(t, KindTransient, k)
}

func TestKindOf_SurvivesWrapping(t *testing.T) {
	inner := Wrap(KindParse, stderrors.New("bad timestamp"))
	outer := fmt.Errorf("reading document: %w", inner)

	assert.True(t, IsParse(outer))
	assert.False(t, IsFatal(outer))
}

func TestWrap_UnwrapPreservesSentinel(t *testing.T) {
	err := Wrapf(KindParse, "parsing cache: %w", ErrCacheFormat)

	assert.True(t, stderrors.Is(err, ErrCacheFormat))
	assert.True(t, IsParse(err))
}

func TestIsTransient_DefaultsTrueForUnknown(t *testing.T) {
	assert.True(t, IsTransient(stderrors.New("who knows")))
	assert.True(t, IsTransient(Wrap(KindTransient, stderrors.New("disk"))))
	assert.False(t, IsTransient(Wrap(KindFatal, stderrors.New("root"))))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "transient", KindTransient.String())
	assert.Equal(t, "fatal", KindFatal.String())
	assert.Equal(t, "parse", KindParse.String())
}

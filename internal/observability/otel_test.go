package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRatio(t *testing.T) {
	assert.Equal(t, defaultSampleRatio, parseRatio(""))
	assert.Equal(t, defaultSampleRatio, parseRatio("half"))
	assert.Equal(t, 0.5, parseRatio(" 0.5 "))
	assert.Equal(t, 0.0, parseRatio("-2"))
	assert.Equal(t, 1.0, parseRatio("7"))
}

func TestParseHeaders(t *testing.T) {
	assert.Nil(t, parseHeaders(nil))
	assert.Nil(t, parseHeaders([]string{"novalue", "=x", "k="}))
	assert.Equal(t,
		map[string]string{"api-key": "abc=def", "team": "lab"},
		parseHeaders([]string{" api-key = abc=def", "team=lab"}),
	)
}

func TestStartSpanWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()
	assert.NotNil(t, ctx)
}

package websocket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeekAction(t *testing.T) {
	action, err := PeekAction([]byte(`{"action":"answer","q_id":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionAnswer, action)

	_, err = PeekAction([]byte(`{"action":`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = PeekAction([]byte(`{"action":3}`))
	assert.ErrorIs(t, err, ErrMissingAction)

	_, err = PeekAction([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMissingAction)
}

func TestDecodeAnswer(t *testing.T) {
	qid := uuid.New()
	q := `"q_id":"` + qid.String() + `"`

	req, err := DecodeAnswer([]byte(`{"action":"answer",` + q + `,"option":2}`))
	require.NoError(t, err)
	assert.Equal(t, qid, req.QuestionID)
	require.NotNil(t, req.Option)
	assert.Equal(t, 2, *req.Option)
	assert.Nil(t, req.Text)

	req, err = DecodeAnswer([]byte(`{"action":"answer",` + q + `,"text":"Osmosis is..."}`))
	require.NoError(t, err)
	require.NotNil(t, req.Text)
	assert.Equal(t, "Osmosis is...", *req.Text)
	assert.Nil(t, req.Option)

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "missing q_id", raw: `{"option":1}`, want: ErrMissingQID},
		{name: "bad q_id", raw: `{"q_id":"abc","option":1}`, want: ErrInvalidQID},
		{name: "no value", raw: `{` + q + `}`, want: ErrAnswerValue},
		{name: "both values", raw: `{` + q + `,"option":1,"text":"a"}`, want: ErrAnswerValue},
		{name: "fractional option", raw: `{` + q + `,"option":1.5}`, want: ErrAnswerValue},
		{name: "string option", raw: `{` + q + `,"option":"1"}`, want: ErrAnswerValue},
		{name: "numeric text", raw: `{` + q + `,"text":12}`, want: ErrAnswerValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAnswer([]byte(tt.raw))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeStartAndClear(t *testing.T) {
	req, err := DecodeStart([]byte(`{"action":"start","name":"Lin","email":"lin@school.test","student_id":"S-1"}`))
	require.NoError(t, err)
	assert.Equal(t, StartRequest{Name: "Lin", Email: "lin@school.test", StudentID: "S-1"}, req)

	_, err = DecodeStart([]byte(`{"name":`))
	assert.ErrorIs(t, err, ErrMalformed)

	qid := uuid.New()
	got, err := DecodeClear([]byte(`{"action":"clear","q_id":"` + qid.String() + `"}`))
	require.NoError(t, err)
	assert.Equal(t, qid, got)
}

func TestNewErrorUsesCodeMessage(t *testing.T) {
	e := NewError("TIME_EXPIRED", "")
	assert.Equal(t, EventError, e.Event)
	assert.NotEmpty(t, e.Error)

	e = NewError("INVALID_ANSWER", "option out of range")
	assert.Equal(t, "option out of range", e.Error)
}

package params

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_States(t *testing.T) {
	p, err := ParseJSON(nil)
	require.NoError(t, err)
	assert.True(t, p.IsAbsent())

	p, err = ParseJSON([]byte("null"))
	require.NoError(t, err)
	assert.True(t, p.IsAbsent())

	p, err = ParseJSON([]byte(" {} "))
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, p.State())

	p, err = ParseJSON([]byte(`{"zone":"top","floor":150}`))
	require.NoError(t, err)
	assert.Equal(t, StatePresent, p.State())
	assert.Equal(t, "zone: top\nfloor: 150", Encode(p))
}

func TestParseJSON_NotObject(t *testing.T) {
	_, err := ParseJSON([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestParseJSON_KeepsOtherValuesVerbatim(t *testing.T) {
	p, err := ParseJSON([]byte(`{"ratio":1.5,"sizes":[[300,250]],"test":true}`))
	require.NoError(t, err)
	assert.Equal(t, "ratio: 1.5\nsizes: [[300,250]]\ntest: true", Encode(p))

	out, err := p.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"ratio":1.5,"sizes":[[300,250]],"test":true}`, string(out))
}

func TestParams_JSON(t *testing.T) {
	b, err := Absent().JSON()
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = Empty().JSON()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))

	p := FromMapping(NewMapping(
		Entry{Key: "b", Value: String("x")},
		Entry{Key: "a", Value: Int(-2)},
	))
	b, err = p.JSON()
	require.NoError(t, err)
	assert.Equal(t, `{"b":"x","a":-2}`, string(b))
}

func TestParams_MarshalInsideStruct(t *testing.T) {
	type row struct {
		Params Params `json:"params"`
	}
	b, err := json.Marshal(row{})
	require.NoError(t, err)
	assert.Equal(t, `{"params":null}`, string(b))

	var r row
	require.NoError(t, json.Unmarshal([]byte(`{"params":{"k":"v"}}`), &r))
	assert.Equal(t, "k: v", Encode(r.Params))
}

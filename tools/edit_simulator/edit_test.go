package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBumpText(t *testing.T) {
	assert.Equal(t, "simEdit: 3", bumpText("", "simEdit", 3))
	assert.Equal(t, "placementId: 1\nsimEdit: 4", bumpText("placementId: 1", "simEdit", 4))
	assert.Equal(t, "placementId: 1\nsimEdit: 5", bumpText("placementId: 1\nsimEdit: 4", "simEdit", 5))
}

func TestPresentCells(t *testing.T) {
	var m matrixResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"geo": "uk", "device": "mobile",
		"matrix": {"rows": [
			{"key": "top", "cells": [{"present": true, "bidder_config_id": 7, "text": "a: 1"}, {"present": false, "text": ""}]},
			{"key": "mpu", "cells": [{"present": true, "bidder_config_id": 9, "text": ""}]}
		]}
	}`), &m))

	cells := presentCells(m)
	require.Len(t, cells, 2)
	assert.Equal(t, 7, cells[0].BidderConfigID)
	assert.Equal(t, 9, cells[1].BidderConfigID)
}

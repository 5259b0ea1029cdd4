package repositories

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stations.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestStationSeed_Aliases(t *testing.T) {
	var seed StationSeed
	err := json.Unmarshal([]byte(`{
		"stationId": 1042,
		"station_name": "คลื่นจัตุรัส",
		"freq": 92.5,
		"province": "ชัยภูมิ",
		"amphoe": "จัตุรัส",
		"latitude": "15.5640",
		"lng": 101.842,
		"onAir": "yes",
		"inspection_68": "ตรวจแล้ว",
		"submit_a_request": "ยื่นแล้ว"
	}`), &seed)
	require.NoError(t, err)

	assert.Equal(t, "1042", seed.ID)
	assert.Equal(t, "คลื่นจัตุรัส", seed.Name)
	assert.Equal(t, "92.5", seed.Frequency)
	assert.Equal(t, "จัตุรัส", seed.District)
	require.NotNil(t, seed.Latitude)
	assert.Equal(t, 15.564, *seed.Latitude)
	assert.Equal(t, 101.842, *seed.Longitude)
	assert.True(t, seed.OnAir)
	assert.True(t, seed.RequestSubmitted)

	st := seed.Station()
	assert.Equal(t, "จัตุรัส", st.Region)
	assert.True(t, st.Status.Inspected)
	assert.False(t, Awaiting(st))
	require.NotNil(t, st.Location)
	assert.Equal(t, 15.564, st.Location.Lat)
}

func TestStationSeed_Defaults(t *testing.T) {
	var seed StationSeed
	require.NoError(t, json.Unmarshal([]byte(`{"id": "x", "name": "n", "lat": null, "lon": 0}`), &seed))

	assert.Nil(t, seed.Latitude)
	assert.True(t, seed.OnAir)
	assert.True(t, seed.RequestSubmitted)

	st := seed.Station()
	assert.Nil(t, st.Location)
	assert.False(t, st.Locatable())
	assert.True(t, Awaiting(st))
}

func TestStationSeed_ZeroCoordinatesAreUnlocatable(t *testing.T) {
	var seed StationSeed
	require.NoError(t, json.Unmarshal([]byte(`{"id": "x", "name": "n", "lat": 0, "lon": 0}`), &seed))

	assert.Nil(t, seed.Station().Location)
}

func TestStationSeed_BadValues(t *testing.T) {
	var seed StationSeed

	err := json.Unmarshal([]byte(`{"id": "x", "name": "n", "on_air": "maybe"}`), &seed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "on_air")

	err = json.Unmarshal([]byte(`{"id": "x", "name": "n", "lat": "north"}`), &seed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")

	var notSubmitted StationSeed
	require.NoError(t, json.Unmarshal([]byte(`{"id": "x", "name": "n", "submit_a_request": "ยังไม่ยื่น"}`), &notSubmitted))
	assert.False(t, notSubmitted.RequestSubmitted)
}

func TestLoadSeedFile(t *testing.T) {
	seeds, err := LoadSeedFile(writeSeed(t, `[
		{"id": " a1 ", "name": " Alpha ", "province": " ชัยภูมิ ", "district": "เมือง"},
		{"id": "a2", "name": "Beta", "province": "ชัยภูมิ"}
	]`))
	require.NoError(t, err)

	require.Len(t, seeds, 2)
	assert.Equal(t, "a1", seeds[0].ID)
	assert.Equal(t, "Alpha", seeds[0].Name)
	assert.Equal(t, "ชัยภูมิ", seeds[0].Province)

	_, err = LoadSeedFile(writeSeed(t, `[{"id": "ok", "name": "ok"}, {"id": " ", "name": "x"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index 2: id cannot be empty")

	_, err = LoadSeedFile(writeSeed(t, `[{"id": "a", "name": ""}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "station a: name cannot be empty")

	_, err = LoadSeedFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = LoadSeedFile(writeSeed(t, `{"not": "an array"}`))
	require.Error(t, err)
}

func TestLoadSeedFile_BundledSeed(t *testing.T) {
	seeds, err := LoadSeedFile(filepath.Join("..", "..", "..", "data", "seeds", "stations.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, seeds)
}

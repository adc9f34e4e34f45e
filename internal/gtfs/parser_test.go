package gtfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGTFSFixture(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"stops.txt":      "stop_id,stop_name,stop_lat,stop_lon,parent_station,location_type\nplat-1,Gare Centrale - Voie 1,48.8566,2.3522,station-1,0\nstation-1,Gare Centrale,48.8566,2.3522,,1\n",
		"routes.txt":     "route_id,route_short_name,route_long_name,route_type\nR1,RER B,,2\n",
		"trips.txt":      "trip_id,route_id,trip_headsign\nT1,R1,Nord\n",
		"stop_times.txt": "trip_id,stop_id,stop_sequence\nT1,plat-1,1\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestParse_AccumulatesModesAndPropagatesToParent(t *testing.T) {
	dir := t.TempDir()
	writeGTFSFixture(t, dir)

	ds, err := Parse(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"Train"}, ds.ModesFor("plat-1"))
	assert.Equal(t, []string{"Train"}, ds.ModesFor("station-1"), "the parent station must inherit its platform's modes")
	assert.Equal(t, []string{"RER B"}, ds.LinesFor("station-1"))
	assert.Equal(t, "Nord", ds.TripHeadsign["T1"], "trip_headsign from trips.txt must be carried on the dataset")
}

func TestParse_MissingFileReturnsGtfsParseError(t *testing.T) {
	dir := t.TempDir()
	_, err := Parse(dir)
	assert.Error(t, err)
}

func TestDataset_ModesFor_DefaultsToBusWhenUnseen(t *testing.T) {
	ds := &Dataset{StopModes: map[string]map[string]bool{}}
	assert.Equal(t, []string{"Bus"}, ds.ModesFor("never-seen"))
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
directory:
  root: "./files"
  source: "./files/source"
  ready: "./files/ready"
  temp: "./files/temp"
  calibration: "./files/calibration"
video:
  prod_format: "mp4"
distance:
  physical: 200
  reference_height: 160
detections:
  local: false
  command: "python3 detect.py"
birdseye:
  every: 25
http:
  port: "9000"
frontend:
  static-files-path: "./client/"
`

func readConfig(t *testing.T, data string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	SetDefaults(v)
	require.NoError(t, v.ReadConfig(strings.NewReader(data)))
	return v
}

func TestFromViper(t *testing.T) {
	s, err := FromViper(readConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "./files/source", s.Directory.Source)
	assert.Equal(t, "data/detections", s.Directory.Detections, "default kept for keys missing from the file")
	assert.Equal(t, 200.0, s.Distance.Physical)
	assert.Equal(t, 160.0, s.Distance.ReferenceHeight)
	assert.False(t, s.Detections.Local)
	assert.Equal(t, "python3 detect.py", s.Detections.Command)
	assert.Equal(t, 25, s.BirdsEye.Every)
	assert.Equal(t, 96, s.BirdsEye.DPI)
	assert.Equal(t, "9000", s.HTTP.Port)
	assert.Equal(t, "./client/", s.Frontend.StaticFilesPath)

	p := s.Params()
	assert.InDelta(t, 1.25, p.ScaleFactor(), 1e-12)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"zero distance", "distance:\n  physical: 0\n"},
		{"negative reference height", "distance:\n  reference_height: -3\n"},
		{"remote detector without command", "detections:\n  local: false\n"},
		{"negative birdseye interval", "birdseye:\n  every: -1\n"},
		{"empty format", "video:\n  prod_format: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromViper(readConfig(t, tt.config))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(sampleConfig), 0644))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "mp4", s.Video.ProdFormat)

	_, err = Load(t.TempDir())
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	s, err := FromViper(readConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("./files/calibration", "street.json"), s.CalibrationPath("videos/street.mp4"))
	assert.Equal(t, filepath.Join("data/detections", "street.json"), s.DetectionsPath("street.mp4"))

	s.Calibration.Path = "coords.json"
	s.Detections.File = "labels.json"
	assert.Equal(t, "coords.json", s.CalibrationPath("street.mp4"))
	assert.Equal(t, "labels.json", s.DetectionsPath("street.mp4"))

	dirs := s.AllDirectories()
	assert.Equal(t, "./files", dirs[0])
	assert.Contains(t, dirs, "data/birdseye")
}

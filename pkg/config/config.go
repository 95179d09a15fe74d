package config

import (
	"path/filepath"
	"strings"

	"github.com/chenBenjamin97/social-distance/pkg/footprint"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

//Directories used by the server, every one of them is created at startup
type Directories struct {
	Root        string `mapstructure:"root"`
	Source      string `mapstructure:"source"`
	Ready       string `mapstructure:"ready"`
	Temp        string `mapstructure:"temp"`
	Calibration string `mapstructure:"calibration"`
	Detections  string `mapstructure:"detections"`
	BirdsEye    string `mapstructure:"birdseye"`
}

//Distance holds the separation to check for and the height of an average bounding box, in cm
type Distance struct {
	Physical        float64 `mapstructure:"physical"`
	ReferenceHeight float64 `mapstructure:"reference_height"`
}

//Detections tells where bounding boxes come from: a local file, or the output of an external detector command
type Detections struct {
	Local   bool   `mapstructure:"local"`
	File    string `mapstructure:"file"`
	Command string `mapstructure:"command"`
}

//Settings is the whole configuration, passed to every component
type Settings struct {
	Directory Directories `mapstructure:"directory"`
	Video     struct {
		ProdFormat string `mapstructure:"prod_format"`
	} `mapstructure:"video"`
	Calibration struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"calibration"`
	Distance   Distance   `mapstructure:"distance"`
	Detections Detections `mapstructure:"detections"`
	Store      struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"store"`
	BirdsEye struct {
		Every int `mapstructure:"every"`
		DPI   int `mapstructure:"dpi"`
	} `mapstructure:"birdseye"`
	Rectified struct {
		Write bool `mapstructure:"write"`
	} `mapstructure:"rectified"`
	HTTP struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"http"`
	Frontend struct {
		StaticFilesPath string `mapstructure:"static-files-path"`
	} `mapstructure:"frontend"`
}

//SetDefaults registers default values on given viper instance
func SetDefaults(v *viper.Viper) {
	v.SetDefault("directory.root", "data")
	v.SetDefault("directory.source", "data/source")
	v.SetDefault("directory.ready", "data/ready")
	v.SetDefault("directory.temp", "data/temp")
	v.SetDefault("directory.calibration", "data/calibration")
	v.SetDefault("directory.detections", "data/detections")
	v.SetDefault("directory.birdseye", "data/birdseye")
	v.SetDefault("video.prod_format", "mp4")
	v.SetDefault("distance.physical", 180.0)
	v.SetDefault("distance.reference_height", 170.0)
	v.SetDefault("detections.local", true)
	v.SetDefault("store.path", "data/results.db")
	v.SetDefault("birdseye.every", 0)
	v.SetDefault("birdseye.dpi", 96)
	v.SetDefault("http.port", "8080")
}

//Load reads config.yaml from given directories into Settings
func Load(paths ...string) (*Settings, error) {
	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	return FromViper(v)
}

//FromViper builds and validates Settings from an already loaded viper instance
func FromViper(v *viper.Viper) (*Settings, error) {
	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

//Validate checks the settings the pipeline can not run without
func (s *Settings) Validate() error {
	if s.Distance.Physical <= 0 {
		return errors.Errorf("distance.physical must be positive, got %v", s.Distance.Physical)
	}
	if s.Distance.ReferenceHeight <= 0 {
		return errors.Errorf("distance.reference_height must be positive, got %v", s.Distance.ReferenceHeight)
	}
	if s.Video.ProdFormat == "" {
		return errors.New("video.prod_format is missing")
	}
	if !s.Detections.Local && s.Detections.Command == "" {
		return errors.New("detections.command is required when detections.local is false")
	}
	if s.BirdsEye.Every < 0 {
		return errors.Errorf("birdseye.every can not be negative, got %d", s.BirdsEye.Every)
	}
	return nil
}

//Params returns the footprint scale settings
func (s *Settings) Params() footprint.Params {
	return footprint.Params{
		PhysicalDistance: s.Distance.Physical,
		ReferenceHeight:  s.Distance.ReferenceHeight,
	}
}

//CalibrationPath returns where the calibration of a video is kept: calibration.path when set,
//otherwise a file named after the video in the calibration directory
func (s *Settings) CalibrationPath(videoName string) string {
	if s.Calibration.Path != "" {
		return s.Calibration.Path
	}
	return filepath.Join(s.Directory.Calibration, BaseName(videoName)+".json")
}

//DetectionsPath returns the detections file of a video: detections.file when set,
//otherwise a file named after the video in the detections directory
func (s *Settings) DetectionsPath(videoName string) string {
	if s.Detections.File != "" {
		return s.Detections.File
	}
	return filepath.Join(s.Directory.Detections, BaseName(videoName)+".json")
}

//AllDirectories returns every configured directory, root first
func (s *Settings) AllDirectories() []string {
	d := s.Directory
	res := make([]string, 0, 7)
	for _, dir := range []string{d.Root, d.Source, d.Ready, d.Temp, d.Calibration, d.Detections, d.BirdsEye} {
		if dir != "" {
			res = append(res, dir)
		}
	}
	return res
}

//BaseName strips directories and extension from a video name
func BaseName(videoName string) string {
	base := filepath.Base(videoName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

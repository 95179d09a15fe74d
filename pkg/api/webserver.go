package api

import (
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chenBenjamin97/social-distance/pkg/birdseye"
	"github.com/chenBenjamin97/social-distance/pkg/calibration"
	"github.com/chenBenjamin97/social-distance/pkg/config"
	"github.com/chenBenjamin97/social-distance/pkg/geometry"
	"github.com/chenBenjamin97/social-distance/pkg/store"
	"github.com/chenBenjamin97/social-distance/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

//AnalyzeFunc starts the analysis of an uploaded video, given its file name in the 'source' directory
type AnalyzeFunc func(videoName string)

//CalibrationRequest is the body of POST /api/Calibration, 4 [x, y] points in click order
type CalibrationRequest struct {
	Points [][2]float64 `json:"points" binding:"required"`
}

//CalibrationResponse holds the clicked points and the quad they sort to
type CalibrationResponse struct {
	Points      [][2]float64 `json:"points"`
	TopLeft     [2]float64   `json:"top_left"`
	TopRight    [2]float64   `json:"top_right"`
	BottomRight [2]float64   `json:"bottom_right"`
	BottomLeft  [2]float64   `json:"bottom_left"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Analyzing   bool         `json:"analyzing,omitempty"`
}

//SetRouter builds the server's routes. analyze is run in its own goroutine for every uploaded video.
func SetRouter(s *config.Settings, db *store.DB, analyze AnalyzeFunc) *gin.Engine {
	r := gin.Default()

	//serve html pages to client
	if s.Frontend.StaticFilesPath != "" {
		r.Static("/client", s.Frontend.StaticFilesPath)
		r.StaticFile("/", path.Join(s.Frontend.StaticFilesPath, "home_page/dist/index.html"))
	}

	apiRoutes := r.Group("/api")

	apiRoutes.GET("/ReadyVideosNames", func(ctx *gin.Context) {
		if names, err := utils.ListDir(s.Directory.Ready); err != nil {
			ctx.Status(http.StatusInternalServerError)
		} else {
			ctx.JSON(http.StatusOK, names)
		}
	})

	apiRoutes.GET("/UserUploadsVideosNames", func(ctx *gin.Context) {
		if names, err := utils.ListDir(s.Directory.Source); err != nil {
			ctx.Status(http.StatusInternalServerError)
		} else {
			ctx.JSON(http.StatusOK, names)
		}
	})

	apiRoutes.GET("/Play", func(ctx *gin.Context) {
		videoName := ctx.Query("name")
		if videoName == "" {
			ctx.Status(http.StatusNotAcceptable) //missing url parameter
			return
		}

		analyzed := ctx.Query("analyzed")
		if analyzed != "true" && analyzed != "false" {
			ctx.Status(http.StatusNotAcceptable) //missing url parameter
			return
		}

		var videoPath string
		if analyzed == "true" {
			videoPath = path.Join(s.Directory.Ready, videoName+"."+s.Video.ProdFormat)
		} else {
			videoPath = path.Join(s.Directory.Source, videoName+"."+s.Video.ProdFormat)
		}

		if _, err := os.Stat(videoPath); err != nil {
			if os.IsNotExist(err) {
				ctx.Status(http.StatusNotFound)
			} else {
				ctx.Status(http.StatusInternalServerError)
			}
			return
		}

		ctx.Header("Content-Type", "video/"+s.Video.ProdFormat)
		http.ServeFile(ctx.Writer, ctx.Request, videoPath)
	})

	apiRoutes.POST("/Upload", func(ctx *gin.Context) {
		fHeader, err := ctx.FormFile("video")
		if err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}

		videoName := filepath.Base(fHeader.Filename)
		if !utils.InSlice(strings.ToLower(filepath.Ext(videoName)), utils.VideoExtensions) {
			ctx.Status(http.StatusUnsupportedMediaType)
			return
		}

		if existNames, err := utils.ListDir(s.Directory.Source); err != nil {
			ctx.Status(http.StatusInternalServerError)
			return
		} else if utils.InSlice(videoName, existNames) {
			ctx.Status(http.StatusNotAcceptable)
			return
		}

		log.Printf("api/Upload: Received new file: name - '%s', size - %v Bytes", videoName, fHeader.Size)

		//detections are optional, the video may already have a file in the detections directory
		if detHeader, err := ctx.FormFile("detections"); err == nil {
			detPath := s.DetectionsPath(videoName)
			if err := os.MkdirAll(filepath.Dir(detPath), 0755); err != nil {
				log.Printf("api/Upload: Could not create '%s', got '%v'", filepath.Dir(detPath), err)
				ctx.Status(http.StatusInternalServerError)
				return
			}
			if err := ctx.SaveUploadedFile(detHeader, detPath); err != nil {
				log.Printf("api/Upload: Could not write '%s' file, got '%v'", detPath, err)
				ctx.Status(http.StatusInternalServerError)
				return
			}
		}

		srcFilePath := path.Join(s.Directory.Source, videoName)
		if err := ctx.SaveUploadedFile(fHeader, srcFilePath); err != nil {
			log.Printf("api/Upload: Could not write '%s' file, got '%v'", srcFilePath, err)
			ctx.Status(http.StatusInternalServerError)
			return
		}

		go analyze(videoName)

		ctx.JSON(http.StatusAccepted, gin.H{"name": videoName})
	})

	apiRoutes.GET("/Calibration", func(ctx *gin.Context) {
		videoName := ctx.Query("name")
		if videoName == "" {
			ctx.Status(http.StatusNotAcceptable)
			return
		}

		pts, err := calibration.NewStore(s.CalibrationPath(videoName)).Load()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				ctx.Status(http.StatusNotFound)
			} else {
				log.Printf("api/Calibration: Error, got '%v'", err)
				ctx.Status(http.StatusInternalServerError)
			}
			return
		}

		res, err := calibrationResponse(pts)
		if err != nil {
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, res)
	})

	apiRoutes.POST("/Calibration", func(ctx *gin.Context) {
		videoName := ctx.Query("name")
		if videoName == "" {
			ctx.Status(http.StatusNotAcceptable)
			return
		}

		st := calibration.NewStore(s.CalibrationPath(videoName))
		if st.Exists() { //a video is calibrated once, delete the file to pick again
			ctx.JSON(http.StatusConflict, gin.H{"error": "'" + videoName + "' is already calibrated"})
			return
		}

		var req CalibrationRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		events := make(calibration.Events, 0, len(req.Points))
		for _, p := range req.Points {
			events = append(events, calibration.ClickAt(p[0], p[1]))
		}

		pts, err := calibration.NewPicker().Collect(&events)
		if err != nil || len(events) > 0 { //fewer or more than 4 points
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.Wrapf(geometry.ErrPointCount, "got %d", len(req.Points)).Error()})
			return
		}

		res, err := calibrationResponse(pts)
		if err != nil {
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		if err := st.Save(pts); err != nil {
			log.Printf("api/Calibration: Error, got '%v'", err)
			ctx.Status(http.StatusInternalServerError)
			return
		}

		//an upload without calibration could not be analyzed, start it now
		if waitingForCalibration(s, videoName) {
			res.Analyzing = true
			go analyze(videoName)
		}

		ctx.JSON(http.StatusCreated, res)
	})

	apiRoutes.GET("/Results", func(ctx *gin.Context) {
		videoName := ctx.Query("name")
		if videoName == "" {
			ctx.Status(http.StatusNotAcceptable)
			return
		}

		run, err := db.LatestRun(videoName)
		if err != nil {
			statusForStoreError(ctx, err)
			return
		}

		summary, err := db.Summary(run.ID)
		if err != nil {
			statusForStoreError(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, summary)
	})

	apiRoutes.GET("/BirdsEye", func(ctx *gin.Context) {
		videoName := ctx.Query("name")
		frame, err := strconv.Atoi(ctx.Query("frame"))
		if videoName == "" || err != nil {
			ctx.Status(http.StatusNotAcceptable)
			return
		}

		run, err := db.LatestRun(videoName)
		if err != nil {
			statusForStoreError(ctx, err)
			return
		}

		if frame < 1 || frame > run.TotalFrames {
			ctx.Status(http.StatusNotFound)
			return
		}

		stored, err := db.FrameFootprints(run.ID, frame)
		if err != nil {
			statusForStoreError(ctx, err)
			return
		}

		scene := birdseye.Scene{Frame: frame, VideoWidth: float64(run.Width), VideoHeight: float64(run.Height)}
		for _, sf := range stored {
			scene.Footprints = append(scene.Footprints, sf.Footprint)
			scene.Overlapped = append(scene.Overlapped, sf.Overlapped)
		}

		size := birdseye.DefaultSize
		size.DPI = s.BirdsEye.DPI

		ctx.Header("Content-Type", "image/png")
		ctx.Status(http.StatusOK)
		if err := birdseye.Render(ctx.Writer, scene, size); err != nil {
			log.Printf("api/BirdsEye: Error, got '%v'", err)
		}
	})

	return r
}

//calibrationResponse sorts the clicked points and checks a homography can be built from them
func calibrationResponse(pts []r2.Point) (*CalibrationResponse, error) {
	quad, err := geometry.SortPoints(pts)
	if err != nil {
		return nil, err
	}

	h, err := geometry.BuildHomography(quad)
	if err != nil {
		return nil, err
	}

	res := &CalibrationResponse{
		Points:      make([][2]float64, 0, len(pts)),
		TopLeft:     pair(quad.TopLeft),
		TopRight:    pair(quad.TopRight),
		BottomRight: pair(quad.BottomRight),
		BottomLeft:  pair(quad.BottomLeft),
		Width:       h.Width,
		Height:      h.Height,
	}
	for _, p := range pts {
		res.Points = append(res.Points, pair(p))
	}

	return res, nil
}

//waitingForCalibration is true for an uploaded video which has no annotated copy in the 'ready' directory
func waitingForCalibration(s *config.Settings, videoName string) bool {
	if _, err := os.Stat(path.Join(s.Directory.Source, videoName)); err != nil {
		return false
	}

	readyPath := path.Join(s.Directory.Ready, config.BaseName(videoName)+"."+s.Video.ProdFormat)
	if _, err := os.Stat(readyPath); err == nil {
		return false
	}

	return true
}

func pair(p r2.Point) [2]float64 {
	return [2]float64{p.X, p.Y}
}

func statusForStoreError(ctx *gin.Context, err error) {
	if errors.Is(err, store.ErrRunNotFound) {
		ctx.Status(http.StatusNotFound)
		return
	}
	log.Printf("api: Error, got '%v'", err)
	ctx.Status(http.StatusInternalServerError)
}

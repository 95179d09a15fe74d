package utils

//EllipseWidthScale stretches bird's-eye ellipses horizontally, matches the aspect ratio of the plot.
//Purely aesthetic, a 1:1 scale does not look right.
const EllipseWidthScale = 3

//EllipseHeightScale stretches bird's-eye ellipses vertically
const EllipseHeightScale = 2

//ProgressEveryFrames is how often (in frames) the pipeline logs its progress
const ProgressEveryFrames = 20

//CancelCalibrationKey stops point picking before 4 points were clicked
const CancelCalibrationKey = 'c'

//CalibrationWindowName is the title of the window showing the frame to calibrate on
const CalibrationWindowName = "frame"

//CalibrationMarkerRadius is the radius in pixels of the dot marking a picked point
const CalibrationMarkerRadius = 10

//TempVideoFormat is the container written while processing, converted to video.prod_format at the end
const TempVideoFormat = "avi"

//TempVideoCodec is the fourcc used for the temporary video (XVID == MPEG-4)
const TempVideoCodec = "XVID"

//VideoExtensions are the uploads accepted by the API
var VideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

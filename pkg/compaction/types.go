package compaction

// Metric keys carried by Operation.Metrics.
const (
	MetricTotalIOReadMB      = "TOTAL_IO_READ_MB"
	MetricTotalIOWriteMB     = "TOTAL_IO_WRITE_MB"
	MetricTotalIOMB          = "TOTAL_IO_MB"
	MetricTotalLogFilesSize  = "TOTAL_LOG_FILES_SIZE"
	MetricTotalLogFilesCount = "TOTAL_LOG_FILES"
)

// Operation is one unit of pending compaction work scoped to a partition.
// Strategies only read operations; they never modify them.
type Operation struct {
	BaseInstantTime string             `json:"base_instant_time,omitempty"`
	DataFilePath    string             `json:"data_file_path,omitempty"`
	DeltaFilePaths  []string           `json:"delta_file_paths,omitempty"`
	FileID          string             `json:"file_id"`
	PartitionPath   string             `json:"partition_path"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
}

// Metric returns the named metric or zero when it is absent.
func (op Operation) Metric(name string) float64 {
	return op.Metrics[name]
}

// Plan is a compaction plan that has already been scheduled.
type Plan struct {
	InstantTime   string            `json:"instant_time"`
	Operations    []Operation       `json:"operations"`
	ExtraMetadata map[string]string `json:"extra_metadata,omitempty"`
}

// Config carries the write-config values strategies consult.
type Config struct {
	// TargetPartitionsPerRun caps the number of distinct partitions admitted
	// into one run. Day-bounded strategies read it as a number of days.
	TargetPartitionsPerRun int
	// TargetIOPerRunMB caps the total IO of one run for IO-bounded strategies.
	TargetIOPerRunMB int64
}

// Selection is the outcome of a partition-aware selection.
type Selection struct {
	Operations []Operation
	// Admitted lists partitions in the order their operations appear.
	Admitted []string
	// Rejected lists partitions left for a later run, in priority order.
	Rejected []string
}

const bytesPerMB = 1024 * 1024

// CaptureMetrics computes the metrics attached to an operation from the size
// of its base data file and its log files. A zero dataFileSize means the file
// group has no base file yet and defaultMaxFileSize is used for the write side.
func CaptureMetrics(dataFileSize int64, logFileSizes []int64, defaultMaxFileSize int64) map[string]float64 {
	var totalLogSize int64
	var logFiles int64
	for _, size := range logFileSizes {
		if size < 0 {
			continue
		}
		totalLogSize += size
		logFiles++
	}

	writeSize := dataFileSize
	if dataFileSize <= 0 {
		dataFileSize = 0
		writeSize = defaultMaxFileSize
	}

	ioRead := (dataFileSize + totalLogSize) / bytesPerMB
	ioWrite := writeSize / bytesPerMB

	return map[string]float64{
		MetricTotalIOReadMB:      float64(ioRead),
		MetricTotalIOWriteMB:     float64(ioWrite),
		MetricTotalIOMB:          float64(ioRead + ioWrite),
		MetricTotalLogFilesSize:  float64(totalLogSize),
		MetricTotalLogFilesCount: float64(logFiles),
	}
}

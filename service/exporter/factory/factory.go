package factory

import (
	"sync"

	"gorm.io/gorm"

	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/service/exporter"
	"github.com/to404hanga/online_judge_evaluator/service/exporter/csv"
	"github.com/to404hanga/online_judge_evaluator/service/exporter/xlsx"
)

type ExporterType string

const (
	CSVSubmissionExporter  ExporterType = "csv-submission"
	XLSXSubmissionExporter ExporterType = "xlsx-submission"
)

var ExporterSuffixMap = map[ExporterType]string{
	CSVSubmissionExporter:  ".csv",
	XLSXSubmissionExporter: ".xlsx",
}

var ExporterContentTypeMap = map[ExporterType]string{
	CSVSubmissionExporter:  "text/csv",
	XLSXSubmissionExporter: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type ExporterFactory struct {
	factory map[ExporterType]exporter.Exporter
	db      *gorm.DB
	log     logger.Logger
	mux     sync.RWMutex
}

func NewExporterFactory(db *gorm.DB, log logger.Logger) *ExporterFactory {
	return &ExporterFactory{
		factory: make(map[ExporterType]exporter.Exporter), // 延迟创建
		db:      db,
		log:     log,
	}
}

func (f *ExporterFactory) GetExporter(exporterType ExporterType) exporter.Exporter {
	f.mux.RLock()
	if exp, exists := f.factory[exporterType]; exists {
		f.mux.RUnlock()
		return exp
	}
	f.mux.RUnlock()

	f.mux.Lock()
	defer f.mux.Unlock()

	// 双重检查，避免重复创建
	if exp, exists := f.factory[exporterType]; exists {
		return exp
	}

	switch exporterType {
	case CSVSubmissionExporter:
		f.factory[CSVSubmissionExporter] = csv.NewStreamableCSVSubmissionExporter(f.db, f.log)
		return f.factory[CSVSubmissionExporter]
	case XLSXSubmissionExporter:
		f.factory[XLSXSubmissionExporter] = xlsx.NewStreamableXLSXSubmissionExporter(f.db, f.log)
		return f.factory[XLSXSubmissionExporter]
	}

	return nil
}

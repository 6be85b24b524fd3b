package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/service/exporter"
	"github.com/to404hanga/online_judge_evaluator/service/exporter/common"
)

type StreamableCSVSubmissionExporter struct {
	log logger.Logger
	db  *gorm.DB
}

var _ exporter.Exporter = (*StreamableCSVSubmissionExporter)(nil)

func NewStreamableCSVSubmissionExporter(db *gorm.DB, log logger.Logger) *StreamableCSVSubmissionExporter {
	return &StreamableCSVSubmissionExporter{
		db:  db,
		log: log,
	}
}

func (e *StreamableCSVSubmissionExporter) Export(ctx context.Context, problemID uint64, writer io.Writer) error {
	ectx, cancel := context.WithCancel(ctx)
	defer cancel()

	batchSize := 1000
	page := 1
	subCh := make(chan []model.Submission, 3)
	errCh := make(chan error, 1)

	go func() {
		defer close(subCh)
		defer close(errCh)
		for {
			select {
			case <-ectx.Done():
				errCh <- ectx.Err()
				return
			default:
				submissions, errGoroutine := common.FetchSubmissions(e.db, ectx, problemID, page, batchSize)
				if errGoroutine != nil {
					errCh <- errGoroutine
					return
				}
				if len(submissions) == 0 {
					return
				}
				subCh <- submissions
				page++
			}
		}
	}()

	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	if err := csvWriter.Write(common.SubmissionHeaders()); err != nil {
		return fmt.Errorf("write header failed: %w", err)
	}

	var goroutineErr error
	for {
		select {
		case submissions, ok := <-subCh:
			if !ok {
				// errCh 先于 subCh 关闭, 此处兜底读取不会阻塞
				if goroutineErr == nil {
					goroutineErr = <-errCh
				}
				if goroutineErr != nil {
					return fmt.Errorf("sub goroutine fetch submissions failed: %w", goroutineErr)
				}
				return nil
			}
			if err := e.processSubmissions(csvWriter, submissions); err != nil {
				return fmt.Errorf("process submissions failed: %w", err)
			}
		case err := <-errCh:
			if err != nil {
				goroutineErr = err
			}
		}
	}
}

// processSubmissions 将一批提交记录转换为 CSV 记录
func (e *StreamableCSVSubmissionExporter) processSubmissions(csvWriter *csv.Writer, submissions []model.Submission) error {
	records := make([][]string, 0, len(submissions))
	for _, sub := range submissions {
		records = append(records, []string{
			strconv.FormatUint(sub.ID, 10),
			strconv.FormatUint(sub.UserID, 10),
			string(sub.Language),
			string(sub.Status),
			strconv.Itoa(sub.TestCasesPassed),
			strconv.Itoa(sub.TestCasesTotal),
			strconv.FormatFloat(sub.Runtime, 'f', 3, 64),
			strconv.Itoa(sub.Memory),
			sub.CreatedAt.Format(time.DateTime),
		})
	}
	return csvWriter.WriteAll(records)
}

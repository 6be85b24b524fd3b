package xlsx

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/service/exporter"
	"github.com/to404hanga/online_judge_evaluator/service/exporter/common"
)

type StreamableXLSXSubmissionExporter struct {
	log logger.Logger
	db  *gorm.DB
}

var _ exporter.Exporter = (*StreamableXLSXSubmissionExporter)(nil)

func NewStreamableXLSXSubmissionExporter(db *gorm.DB, log logger.Logger) *StreamableXLSXSubmissionExporter {
	return &StreamableXLSXSubmissionExporter{
		db:  db,
		log: log,
	}
}

func (e *StreamableXLSXSubmissionExporter) Export(ctx context.Context, problemID uint64, writer io.Writer) error {
	ectx, cancel := context.WithCancel(ctx)
	defer cancel()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.log.ErrorContext(ctx, "close excel file failed", logger.Error(err))
		}
	}()

	sheetName := "提交记录"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet failed: %w", err)
	}
	f.SetActiveSheet(index)

	if err = e.writeHeader(f, sheetName); err != nil {
		return fmt.Errorf("write header failed: %w", err)
	}

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

	currentRow := 2 // 第一行是表头
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
				if err = f.Write(writer); err != nil {
					return fmt.Errorf("write excel file failed: %w", err)
				}
				return nil
			}
			if err = e.processSubmissions(f, sheetName, submissions, &currentRow); err != nil {
				return fmt.Errorf("process submissions failed: %w", err)
			}
		case err = <-errCh:
			if err != nil {
				goroutineErr = err
			}
		}
	}
}

// processSubmissions 将一批提交记录写入 Excel 文件
func (e *StreamableXLSXSubmissionExporter) processSubmissions(f *excelize.File, sheetName string, submissions []model.Submission, currentRow *int) error {
	for _, sub := range submissions {
		rowData := []interface{}{
			sub.ID,
			sub.UserID,
			string(sub.Language),
			string(sub.Status),
			sub.TestCasesPassed,
			sub.TestCasesTotal,
			strconv.FormatFloat(sub.Runtime, 'f', 3, 64),
			sub.Memory,
			sub.CreatedAt.Format(time.DateTime),
		}

		for col, value := range rowData {
			cell, err := excelize.CoordinatesToCellName(col+1, *currentRow)
			if err != nil {
				return fmt.Errorf("get cell name failed: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("set cell value failed: %w", err)
			}
		}
		*currentRow++
	}
	return nil
}

// writeHeader 写入 Excel 表头
func (e *StreamableXLSXSubmissionExporter) writeHeader(f *excelize.File, sheetName string) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E0E0E0"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style failed: %w", err)
	}

	for col, header := range common.SubmissionHeaders() {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("get cell name failed: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("set header value failed: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("set header style failed: %w", err)
		}
	}

	// 提交时间列较宽
	columnWidths := map[string]float64{
		"A": 12,
		"B": 12,
		"C": 14,
		"D": 12,
		"E": 12,
		"F": 12,
		"G": 12,
		"H": 12,
		"I": 22,
	}
	for col, width := range columnWidths {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width failed: %w", err)
		}
	}

	return nil
}

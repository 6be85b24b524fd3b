package xlsx

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
)

// 指向不可达地址的连接, 用于验证取数失败时导出报错而非静默截断
func newUnreachableDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "root:root@tcp(127.0.0.1:1)/online_judge?charset=utf8mb4&parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               gormlogger.Discard,
	})
	require.NoError(t, err)
	return db
}

func TestExportReportsFetchError(t *testing.T) {
	exp := NewStreamableXLSXSubmissionExporter(newUnreachableDB(t), logger.NewZapLogger(zap.NewNop()))

	var buf bytes.Buffer
	err := exp.Export(context.Background(), 1, &buf)
	require.Error(t, err)
	require.ErrorContains(t, err, "fetch submissions failed")
}

package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"MateGuard/pkg/logger"
)

// Job 返回可挂到 cron 上的备份任务。警报台账是升级动作的审计记录，
// 设备库损坏时不能跟着一起丢，所以定期做文件级拷贝。
func Job(driver, dsn, dir string) func(ctx context.Context) {
	return func(ctx context.Context) {
		if err := Execute(driver, dsn, dir); err != nil {
			logger.Warn("ledger backup failed", zap.Error(err))
			return
		}
		logger.Info("ledger backup completed", zap.String("dir", dir))
	}
}

// Execute 按数据库驱动执行一次备份
func Execute(driver, dsn, dir string) error {
	dst, tool, err := plan(driver, dir, time.Now())
	if err != nil {
		return err
	}
	if tool == "" {
		return backupSQLite(dsn, dst)
	}
	return backupWithTool(dst, tool, dsn)
}

// plan 把驱动名映射到备份目标与导出工具。驱动名与 util.OpenDatabase
// 接受的一致；sqlite 走文件拷贝，tool 为空。
func plan(driver, dir string, now time.Time) (dst, tool string, err error) {
	stamp := now.Format("20060102_150405")
	switch driver {
	case "", "sqlite":
		return filepath.Join(dir, fmt.Sprintf("ledger_backup_%s.db", stamp)), "", nil
	case "mysql":
		return filepath.Join(dir, fmt.Sprintf("ledger_backup_%s.sql", stamp)), "mysqldump", nil
	case "pg", "postgres":
		return filepath.Join(dir, fmt.Sprintf("ledger_backup_%s.sql", stamp)), "pg_dump", nil
	default:
		return "", "", fmt.Errorf("unsupported DB_DRIVER: %s", driver)
	}
}

func backupSQLite(src, dst string) error {
	if src == "" || strings.Contains(src, ":memory:") {
		return fmt.Errorf("in-memory database cannot be backed up")
	}
	if err := ensureDir(dst); err != nil {
		return err
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("error opening source file: %v", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating destination file: %v", err)
	}
	defer destFile.Close()

	if _, err = io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("error copying data: %v", err)
	}
	return nil
}

func backupWithTool(dst, tool, dsn string) error {
	if err := ensureDir(dst); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating destination file: %v", err)
	}
	defer out.Close()

	cmd := exec.Command(tool, dsn)
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %v", tool, err)
	}
	return nil
}

func ensureDir(dst string) error {
	dir := filepath.Dir(dst)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create backup directory: %v", err)
		}
	}
	return nil
}

package mysql

import (
	"database/sql"
	"errors"
	"strings"

	"ankahee-backend/internal/repository"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry 违反唯一索引
const mysqlDuplicateEntry = 1062

// mapError 把驱动错误转换成仓库层的哨兵错误
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return repository.ErrDuplicate
	}
	return err
}

// inClause 生成 IN (?, ?, ...) 的占位符和参数
func inClause(ids []string) (string, []interface{}) {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ") + ")", args
}

// checkAffected 写操作没有命中任何行时返回 ErrNotFound
func checkAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

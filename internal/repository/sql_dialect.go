package repository

import (
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// periodBucketExpr 构建按日/周/月分桶的时间表达式，兼容 sqlite 与 postgres。
func periodBucketExpr(dialect, period string) string {
	normalized := strings.ToLower(strings.TrimSpace(period))
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		switch normalized {
		case "week":
			return "to_char(date_trunc('week', created_at), 'YYYY-MM-DD')"
		case "month":
			return "to_char(date_trunc('month', created_at), 'YYYY-MM')"
		default:
			return "to_char(date_trunc('day', created_at), 'YYYY-MM-DD')"
		}
	default:
		switch normalized {
		case "week":
			// sqlite 的 %W 为一年中的周序号，统一成 年-周 形式
			return "strftime('%Y-%W', created_at)"
		case "month":
			return "strftime('%Y-%m', created_at)"
		default:
			return "strftime('%Y-%m-%d', created_at)"
		}
	}
}

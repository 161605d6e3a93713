package credential

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/nao1215/usergate/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// LoadSQLite はSQLiteデータベースの credentials テーブルから全レコードを読み込み、
// MemoryStoreを生成する。テーブルが無ければマイグレーションで作成する。
// 読み込み後は接続を閉じるため、起動後にDBを変更しても反映されない。
func LoadSQLite(ctx context.Context, path string) (*MemoryStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	defer db.Close()

	if err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	records, err := queryRecords(ctx, db)
	if err != nil {
		return nil, err
	}

	store, err := NewMemoryStore(records)
	if err != nil {
		return nil, fmt.Errorf("認証情報データベース %s: %w", path, err)
	}
	return store, nil
}

func queryRecords(ctx context.Context, db *sql.DB) ([]Record, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, username, password_hash, role FROM credentials ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("認証情報の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Username, &r.PasswordHash, &r.Role); err != nil {
			return nil, fmt.Errorf("認証情報の読み取りに失敗: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("認証情報の読み取りに失敗: %w", err)
	}
	return records, nil
}

package credential

import (
	"context"
	"errors"
	"fmt"
)

// Record は1件の静的な認証情報。
type Record struct {
	// ID は発行するトークンに埋め込む呼び出し元の一意識別子。
	ID string `yaml:"id" json:"id"`
	// Username はログインユーザー名。大文字小文字を区別して照合する。
	Username string `yaml:"username" json:"username"`
	// PasswordHash はbcryptでハッシュ化したパスワード。
	PasswordHash string `yaml:"password" json:"password"`
	// Role はトークンに埋め込むロール名。
	Role string `yaml:"role" json:"role"`
}

// Store は認証情報レコードの参照を抽象化する。
type Store interface {
	// Lookup はユーザー名に完全一致するレコードを返す。見つからない場合はfalseを返す。
	Lookup(ctx context.Context, username string) (Record, bool, error)
}

// MemoryStore はメモリ上に保持する読み取り専用のStore。
// 生成後は変更されないため、複数のgoroutineから同時に参照できる。
type MemoryStore struct {
	records map[string]Record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore はレコードを検証してMemoryStoreを生成する。
// ユーザー名・パスワードハッシュ・IDが空のレコードや、ユーザー名の重複はエラーになる。
func NewMemoryStore(records []Record) (*MemoryStore, error) {
	m := make(map[string]Record, len(records))
	for i, r := range records {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("認証情報 #%d が不正: %w", i, err)
		}
		if _, exists := m[r.Username]; exists {
			return nil, fmt.Errorf("ユーザー名 %q が重複しています", r.Username)
		}
		m[r.Username] = r
	}
	return &MemoryStore{records: m}, nil
}

// Lookup はユーザー名に完全一致するレコードを返す。
func (s *MemoryStore) Lookup(_ context.Context, username string) (Record, bool, error) {
	r, ok := s.records[username]
	return r, ok, nil
}

// Len は保持しているレコード数を返す。
func (s *MemoryStore) Len() int {
	return len(s.records)
}

func (r Record) validate() error {
	switch {
	case r.Username == "":
		return errors.New("usernameが空です")
	case r.PasswordHash == "":
		return errors.New("passwordが空です")
	case r.ID == "":
		return errors.New("idが空です")
	}
	return nil
}

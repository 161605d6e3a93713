package credential

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileFormat は認証情報ファイルの形式。YAMLのほか、同じ構造のJSONも読み込める。
//
//	users:
//	  - id: "1"
//	    username: admin
//	    password: $2b$10$...
//	    role: admin
type fileFormat struct {
	Users []Record `yaml:"users"`
}

// LoadFile は認証情報ファイルを読み込みMemoryStoreを生成する。
func LoadFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("認証情報ファイルの読み込みに失敗: %w", err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("認証情報ファイルのパースに失敗: %w", err)
	}

	store, err := NewMemoryStore(f.Users)
	if err != nil {
		return nil, fmt.Errorf("認証情報ファイル %s: %w", path, err)
	}
	return store, nil
}

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TestSetup はグローバルロガーの設定を検証する。
// グローバル状態を書き換えるため並列実行しない。
func TestSetup(t *testing.T) {
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	t.Run("JSON形式でserviceフィールド付きのログを出力すること", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Setup("info", "json", &buf); err != nil {
			t.Fatalf("Setup()でエラーが発生: %v", err)
		}
		log.Info().Msg("hello")

		var line map[string]any
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("ログのパースに失敗: %v (%s)", err, buf.String())
		}
		if line["service"] != "usergate" || line["message"] != "hello" {
			t.Errorf("ログ = %v", line)
		}
	})

	t.Run("設定したレベル未満のログは出力されないこと", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Setup("warn", "json", &buf); err != nil {
			t.Fatalf("Setup()でエラーが発生: %v", err)
		}
		log.Info().Msg("suppressed")
		if buf.Len() != 0 {
			t.Errorf("infoログが出力された: %s", buf.String())
		}
	})

	t.Run("不正なレベルと形式はエラーになること", func(t *testing.T) {
		if err := Setup("loud", "json", &bytes.Buffer{}); err == nil {
			t.Error("不正なレベルでエラーが返されるべき")
		}
		if err := Setup("info", "xml", &bytes.Buffer{}); err == nil {
			t.Error("不正な形式でエラーが返されるべき")
		}
	})
}

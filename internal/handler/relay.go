package handler

import (
	"encoding/json"
	"net/http"
)

// relay は上流のレスポンスをステータスコードそのままで呼び出し元に返す。
// ボディはJSONとして解釈できればそのまま、できなければ文字列として扱う。
// エラーステータスで文字列ボディの場合は {"message": "<text>"} に包む。
// 空のボディは成功時にJSON文字列 "" として返す。
func relay(w http.ResponseWriter, res *upstreamResult) {
	if !bodyAllowed(res.status) {
		w.WriteHeader(res.status)
		return
	}

	text := string(res.body)
	var parsed any
	isJSON := len(res.body) > 0 && json.Unmarshal(res.body, &parsed) == nil
	if isJSON {
		if s, ok := parsed.(string); ok {
			text = s
			isJSON = false
		}
	}

	ok := res.status >= 200 && res.status <= 299
	switch {
	case isJSON:
		writeRawJSON(w, res.status, res.body)
	case ok:
		writeJSON(w, res.status, text)
	default:
		writeJSON(w, res.status, messageBody{Message: text})
	}
}

// messageBody は上流の文字列エラーを包むボディ。
type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}

// bodyAllowed はステータスコードがレスポンスボディを許可するかを返す。
func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

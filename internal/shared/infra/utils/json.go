package utils

import (
	"encoding/json"

	"go.uber.org/zap"
)

// UnmarshalAndHandle decodifica data como T y llama a handler. Los payloads
// inválidos se registran y se descartan.
func UnmarshalAndHandle[T any](log *zap.Logger, data json.RawMessage, handler func(T)) {
	var evt T
	if err := json.Unmarshal(data, &evt); err != nil {
		log.Warn("⚠️ Failed to unmarshal event data", zap.Error(err))
		return
	}
	handler(evt)
}

// Package json provides the JSON message envelope for Aquilify WebSocket
// connections. It parses incoming JSON messages and serializes outgoing
// messages according to the envelope format.
//
// # Message Format
//
// Incoming messages should be JSON objects with the following structure:
//
//	{
//	  "id": "optional-message-id",      // For request/reply correlation
//	  "path": "/route/path",            // Required: determines which handler to execute
//	  "meta": { /* optional metadata */ },
//	  "data": { /* your data here */ }  // Optional: message payload
//	}
//
// Outgoing messages are automatically wrapped in an envelope:
//
//	{
//	  "id": "message-id",               // Present if replying or making a request
//	  "data": { /* your response */ }   // Your response data
//	}
//
// # Special Response Types
//
// The middleware provides special handling for certain response types:
//
//   - Error (string) -> {"error": "message"}
//   - FieldError/[]FieldError -> {"error": "Validation error", "fields": [...]}
//   - string -> {"message": "your string"}
//   - Other types -> {"data": yourData}
//
// # Usage
//
//	socketRouter := sockets.NewRouter()
//	socketRouter.Use(json.Middleware())
//
// The middleware also validates the Sec-WebSocket-Protocol header, expecting
// "aquilify-json" if present.
package json

import (
	"encoding/json"
	"errors"

	"github.com/embrake/aquilify/sockets"
)

type messageEnvelope struct {
	ID   string          `json:"id"`
	Path string          `json:"path"`
	Meta map[string]any  `json:"meta"`
	Data json.RawMessage `json:"data"`
}

// Middleware returns the JSON envelope middleware.
func Middleware() func(ctx *sockets.Context) {
	return func(ctx *sockets.Context) {
		headers := ctx.Headers()
		secWebSocketProtocol := headers.Get("Sec-WebSocket-Protocol")
		if secWebSocketProtocol != "" && secWebSocketProtocol != "aquilify-json" {
			ctx.Error = errors.New("Unsupported WebSocket Subprotocol: " + secWebSocketProtocol)
			return
		}

		if len(ctx.RawData()) != 0 {
			var envelope messageEnvelope
			if err := json.Unmarshal(ctx.RawData(), &envelope); err != nil {
				ctx.Error = err
				return
			}

			if envelope.ID != "" {
				ctx.SetMessageID(envelope.ID)
			}
			if envelope.Path != "" {
				ctx.SetMessagePath(envelope.Path)
			}
			if envelope.Meta != nil {
				ctx.SetMessageMeta(envelope.Meta)
			}
			if envelope.Data != nil {
				ctx.SetMessageData(envelope.Data)
			}
		}

		ctx.SetMessageDecoder(decodeMessage)

		ctx.SetMessageUnmarshaler(func(message *sockets.InboundMessage, into any) error {
			return json.Unmarshal(message.Data, into)
		})

		ctx.SetMessageMarshaller(marshalMessage)

		ctx.Next()
	}
}

func decodeMessage(data []byte) (*sockets.InboundMessage, error) {
	var envelope messageEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return &sockets.InboundMessage{
		ID:      envelope.ID,
		Path:    envelope.Path,
		Meta:    envelope.Meta,
		RawData: data,
		Data:    envelope.Data,
	}, nil
}

func marshalMessage(message *sockets.OutboundMessage) ([]byte, error) {
	switch v := message.Data.(type) {

	case []FieldError:
		message.Data = M{
			"error":  "Validation error",
			"fields": genFieldsField(v),
		}

	case FieldError:
		message.Data = M{
			"error":  "Validation error",
			"fields": genFieldsField([]FieldError{v}),
		}

	case Error:
		message.Data = M{"error": string(v)}

	case string:
		message.Data = M{"message": v}
	}

	envelope := map[string]any{}
	if message.ID != "" {
		envelope["id"] = message.ID
	}
	if message.Data != nil {
		envelope["data"] = message.Data
	}

	return json.Marshal(envelope)
}

func genFieldsField(errors []FieldError) []M {
	var fields []M
	for _, err := range errors {
		field := M{}
		field[err.Field] = err.Error
		fields = append(fields, field)
	}
	return fields
}

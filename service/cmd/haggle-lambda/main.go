//go:build lambda

// Command haggle-lambda plays one self-play match per function URL request.
// The body is either a match description or {"seed": n} for a generated one.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/jason-s-yu/haggle/service/internal/config"
	"github.com/jason-s-yu/haggle/service/internal/match"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

type playResult struct {
	Match  config.Match  `json:"match"`
	Result match.Result  `json:"result"`
	Events []match.Event `json:"events"`
}

func handler(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(400, "invalid base64 body")
		}
		body = string(decoded)
	}
	if !gjson.Valid(body) {
		return errResp(400, "invalid JSON")
	}

	var cfg config.Match
	if seed := gjson.Get(body, "seed"); seed.Exists() {
		c, err := match.NewGenerator(seed.Uint()).Next()
		if err != nil {
			return errResp(500, err.Error())
		}
		cfg = c
	} else {
		c, err := config.ParseJSON([]byte(body))
		if err != nil {
			return errResp(400, err.Error())
		}
		cfg = c
	}

	var evs []match.Event
	logger := log.WithField("request", event.RequestContext.RequestID)
	m, err := match.NewSelfPlay(cfg, func(ev match.Event) {
		if ev.Type != match.EventDiagnostic {
			evs = append(evs, ev)
		}
	}, logger)
	if err != nil {
		return errResp(400, err.Error())
	}
	res, err := m.Run(ctx)
	if err != nil {
		return errResp(500, fmt.Sprintf("match %s: %v", m.ID, err))
	}

	respJSON, _ := json.Marshal(playResult{Match: cfg, Result: res, Events: evs})
	return events.LambdaFunctionURLResponse{StatusCode: 200, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	lambda.Start(handler)
}

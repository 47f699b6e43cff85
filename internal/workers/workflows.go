package workers

import (
	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/workflow"
)

// HTTPRequestWorkflow — workflow "Http_request": один запрос через http_get_generic.
func HTTPRequestWorkflow() *workflow.Workflow {
	uri := workflow.InputField{
		Name:        "uri",
		Default:     "",
		Description: "Request url",
		Type:        workflow.InputString,
	}
	contentType := workflow.InputField{
		Name:        "contentType",
		Default:     "application/json",
		Description: "Request contentType header",
		Type:        workflow.InputString,
	}
	method := workflow.InputField{
		Name:        "method",
		Default:     "GET",
		Description: "Request method",
		Options:     []any{"GET", "PUT", "POST", "DELETE", "PATCH"},
		Type:        workflow.InputSelect,
	}
	headers := workflow.InputField{
		Name:        "headers",
		Default:     map[string]any{},
		Description: "Request headers",
		Type:        workflow.InputTextarea,
	}
	body := workflow.InputField{
		Name:        "body",
		Default:     map[string]any{},
		Description: "Request body",
		Type:        workflow.InputTextarea,
	}
	timeout := workflow.InputField{
		Name:        "timeout",
		Default:     360,
		Description: "Request timeout",
		Type:        workflow.InputInt,
	}

	return &workflow.Workflow{
		Name:        "Http_request",
		Version:     1,
		Description: "Simple HTTP request",
		Labels:      []string{"HTTP"},
		RBAC:        []string{"network-admin"},
		Restartable: true,
		Inputs:      []workflow.InputField{uri, contentType, method, headers, body, timeout},
		Tasks: []domain.WorkflowTask{
			workflow.Simple(HTTPTaskName, "http_task", map[string]any{
				"http_request": map[string]any{
					"uri":         uri.Ref(),
					"contentType": contentType.Ref(),
					"method":      method.Ref(),
					"headers":     headers.Ref(),
					"body":        body.Ref(),
					"timeout":     timeout.Ref(),
				},
			}),
		},
		OutputParameters: map[string]any{
			"data": "${http_task.output.http_response}",
		},
	}
}

// PostToSlack — workflow "Post_to_Slack": сообщение в Slack через webhook.
func PostToSlack() *workflow.Workflow {
	webhook := workflow.InputField{
		Name:        "slack_webhook_id",
		Default:     "",
		Description: "The Slack webhook ID that you want to send this message to",
		Type:        workflow.InputString,
	}
	text := workflow.InputField{
		Name:        "message_text",
		Default:     "Hello Slack! First workflow test.",
		Description: "The message that you want to send to Slack",
		Type:        workflow.InputString,
	}
	listener := false

	return &workflow.Workflow{
		Name:        "Post_to_Slack",
		Version:     1,
		Description: "Post a message to your favorite Slack channel",
		Labels:      []string{"SLACK", "HTTP"},
		Restartable: true,
		Inputs:      []workflow.InputField{webhook, text},
		Tasks: []domain.WorkflowTask{
			workflow.Simple(HTTPTaskName, "http_post_generic_ref_6EHC", map[string]any{
				"http_request": map[string]any{
					"uri":               "https://hooks.slack.com/services/" + webhook.Ref(),
					"method":            "POST",
					"contentType":       "application/json",
					"body":              map[string]any{"text": text.Ref()},
					"connectionTimeOut": "3600",
					"readTimeOut":       "3600",
				},
			}),
		},
		SchemaVersion:                 2,
		WorkflowStatusListenerEnabled: &listener,
	}
}

package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/mcp/tools"
)

// registerTools wires every tool definition to its handler. Definitions live
// here in one place so the exposed surface is reviewable at a glance.
func registerTools(s *server.MCPServer, h *tools.Handler) {
	// Kafka.
	s.AddTool(mcp.Tool{
		Name:        "list_topics",
		Description: "List the Kafka topics visible to the configured credentials.",
		InputSchema: objectSchema(nil, nil),
	}, h.ListTopics)

	s.AddTool(mcp.Tool{
		Name:        "create_topics",
		Description: "Create one or more Kafka topics. Partition and replication settings apply to all named topics; unset values use the broker defaults.",
		InputSchema: objectSchema(map[string]interface{}{
			"names": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Topic names to create.",
			},
			"partitions": map[string]interface{}{
				"type":        "integer",
				"description": "Partition count; omit for the broker default.",
			},
			"replication_factor": map[string]interface{}{
				"type":        "integer",
				"description": "Replication factor; omit for the broker default.",
			},
			"configs": map[string]interface{}{
				"type":        "object",
				"description": "Topic configuration overrides, e.g. {\"cleanup.policy\": \"compact\"}.",
			},
		}, []string{"names"}),
	}, h.CreateTopics)

	s.AddTool(mcp.Tool{
		Name:        "delete_topics",
		Description: "Delete one or more Kafka topics.",
		InputSchema: objectSchema(map[string]interface{}{
			"names": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Topic names to delete.",
			},
		}, []string{"names"}),
	}, h.DeleteTopics)

	s.AddTool(mcp.Tool{
		Name:        "produce_message",
		Description: "Produce a single message to a Kafka topic and report the partition and offset it landed on.",
		InputSchema: objectSchema(map[string]interface{}{
			"topic": map[string]interface{}{"type": "string", "description": "Target topic."},
			"key":   map[string]interface{}{"type": "string", "description": "Optional record key."},
			"value": map[string]interface{}{"type": "string", "description": "Record value."},
		}, []string{"topic", "value"}),
	}, h.ProduceMessage)

	s.AddTool(mcp.Tool{
		Name:        "consume_messages",
		Description: "Consume messages from Kafka topics until the message cap or the timeout is reached. Each session uses its own consumer-group identity.",
		InputSchema: objectSchema(map[string]interface{}{
			"topics": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Topics to consume from.",
			},
			"max_messages": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum messages to return (default 10, cap 500).",
			},
			"timeout_seconds": map[string]interface{}{
				"type":        "integer",
				"description": "How long to poll before returning (default 5, cap 60).",
			},
			"from_beginning": map[string]interface{}{
				"type":        "boolean",
				"description": "Start from the earliest offset instead of the latest.",
			},
		}, []string{"topics"}),
	}, h.ConsumeMessages)

	s.AddTool(mcp.Tool{
		Name:        "list_consumer_groups",
		Description: "List the consumer groups known to the Kafka cluster.",
		InputSchema: objectSchema(nil, nil),
	}, h.ListConsumerGroups)

	s.AddTool(mcp.Tool{
		Name:        "get_topic_config",
		Description: "Describe the broker-side configuration of a Kafka topic.",
		InputSchema: objectSchema(map[string]interface{}{
			"topic": map[string]interface{}{"type": "string", "description": "Topic to describe."},
		}, []string{"topic"}),
	}, h.GetTopicConfig)

	s.AddTool(mcp.Tool{
		Name:        "alter_topic_config",
		Description: "Set one configuration key on a Kafka topic.",
		InputSchema: objectSchema(map[string]interface{}{
			"topic": map[string]interface{}{"type": "string", "description": "Topic to alter."},
			"key":   map[string]interface{}{"type": "string", "description": "Configuration key, e.g. retention.ms."},
			"value": map[string]interface{}{"type": "string", "description": "New value."},
		}, []string{"topic", "key"}),
	}, h.AlterTopicConfig)

	// Control plane.
	s.AddTool(mcp.Tool{
		Name:        "list_clusters",
		Description: "List the Kafka clusters visible through the control plane API.",
		InputSchema: objectSchema(map[string]interface{}{
			"environment_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional environment id to scope the listing.",
			},
		}, nil),
	}, h.ListClusters)

	s.AddTool(mcp.Tool{
		Name:        "list_connectors",
		Description: "List the connectors deployed on the Connect cluster.",
		InputSchema: objectSchema(nil, nil),
	}, h.ListConnectors)

	s.AddTool(mcp.Tool{
		Name:        "get_connector",
		Description: "Get one connector's configuration and status.",
		InputSchema: objectSchema(map[string]interface{}{
			"name": map[string]interface{}{"type": "string", "description": "Connector name."},
		}, []string{"name"}),
	}, h.GetConnector)

	// Flink.
	s.AddTool(mcp.Tool{
		Name:        "list_flink_statements",
		Description: "List the Flink SQL statements.",
		InputSchema: objectSchema(nil, nil),
	}, h.ListFlinkStatements)

	s.AddTool(mcp.Tool{
		Name:        "create_flink_statement",
		Description: "Submit a Flink SQL statement. A name is generated when none is given.",
		InputSchema: objectSchema(map[string]interface{}{
			"statement": map[string]interface{}{"type": "string", "description": "The SQL text to run."},
			"name":      map[string]interface{}{"type": "string", "description": "Optional statement name; the deletion handle."},
			"properties": map[string]interface{}{
				"type":        "object",
				"description": "Optional statement properties, e.g. the default catalog and database.",
			},
		}, []string{"statement"}),
	}, h.CreateFlinkStatement)

	s.AddTool(mcp.Tool{
		Name:        "delete_flink_statement",
		Description: "Delete a Flink SQL statement by name.",
		InputSchema: objectSchema(map[string]interface{}{
			"name": map[string]interface{}{"type": "string", "description": "Statement name."},
		}, []string{"name"}),
	}, h.DeleteFlinkStatement)

	// Schema Registry.
	s.AddTool(mcp.Tool{
		Name:        "list_subjects",
		Description: "List the subjects registered in the Schema Registry.",
		InputSchema: objectSchema(nil, nil),
	}, h.ListSubjects)

	s.AddTool(mcp.Tool{
		Name:        "get_latest_schema",
		Description: "Get the latest registered schema version for a subject.",
		InputSchema: objectSchema(map[string]interface{}{
			"subject": map[string]interface{}{"type": "string", "description": "Subject name."},
		}, []string{"subject"}),
	}, h.GetLatestSchema)

	// Catalog.
	s.AddTool(mcp.Tool{
		Name:        "search_catalog",
		Description: "Full-text search over catalog entities such as topics, schemas, and fields.",
		InputSchema: objectSchema(map[string]interface{}{
			"query": map[string]interface{}{"type": "string", "description": "Search text."},
			"types": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Optional entity types to restrict the search to.",
			},
			"limit": map[string]interface{}{"type": "integer", "description": "Maximum results to return."},
		}, []string{"query"}),
	}, h.SearchCatalog)

	s.AddTool(mcp.Tool{
		Name:        "list_tags",
		Description: "List the tag definitions available in the catalog.",
		InputSchema: objectSchema(nil, nil),
	}, h.ListTags)

	// Telemetry.
	s.AddTool(mcp.Tool{
		Name:        "query_metrics",
		Description: "Query the telemetry metrics API for one metric over an interval.",
		InputSchema: objectSchema(map[string]interface{}{
			"metric": map[string]interface{}{
				"type":        "string",
				"description": "Fully-qualified metric name, e.g. io.confluent.kafka.server/received_bytes.",
			},
			"resource_ids": map[string]interface{}{
				"type":        "object",
				"description": "Resource filters as field/value pairs, e.g. {\"resource.kafka.id\": \"lkc-123\"}.",
			},
			"interval": map[string]interface{}{
				"type":        "string",
				"description": "ISO-8601 interval, e.g. 2026-08-23T00:00:00Z/2026-08-23T01:00:00Z.",
			},
			"granularity": map[string]interface{}{
				"type":        "string",
				"description": "ISO-8601 duration bucket size (default PT1M).",
			},
			"limit": map[string]interface{}{"type": "integer", "description": "Maximum data points (default 100)."},
		}, []string{"metric", "interval"}),
	}, h.QueryMetrics)
}

func objectSchema(properties map[string]interface{}, required []string) mcp.ToolInputSchema {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

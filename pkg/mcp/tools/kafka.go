package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/confluent"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/transport/session"
)

const (
	defaultConsumeMax     = 10
	maxConsumeMax         = 500
	defaultConsumeTimeout = 5 * time.Second
	maxConsumeTimeout     = 60 * time.Second
)

// ListTopics lists the topics visible to the configured credentials.
func (h *Handler) ListTopics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	adm, err := h.cm.AdminClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	details, err := adm.ListTopics(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list topics: %v", err)), nil
	}

	type topicInfo struct {
		Name       string `json:"name"`
		Partitions int    `json:"partitions"`
		Replicas   int    `json:"replicas"`
	}
	topics := make([]topicInfo, 0, len(details))
	for _, d := range details.Sorted() {
		if d.Err != nil {
			continue
		}
		replicas := 0
		if len(d.Partitions) > 0 {
			replicas = d.Partitions.NumReplicas()
		}
		topics = append(topics, topicInfo{
			Name:       d.Topic,
			Partitions: len(d.Partitions),
			Replicas:   replicas,
		})
	}
	return structuredResult(map[string]any{"topics": topics})
}

// CreateTopics creates one or more topics with shared partition and
// replication settings. Unset counts fall back to broker defaults.
func (h *Handler) CreateTopics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Names             []string          `json:"names"`
		Partitions        int32             `json:"partitions"`
		ReplicationFactor int16             `json:"replication_factor"`
		Configs           map[string]string `json:"configs"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(args.Names) == 0 {
		return mcp.NewToolResultError("names must not be empty"), nil
	}

	partitions := args.Partitions
	if partitions <= 0 {
		partitions = -1 // broker default
	}
	replication := args.ReplicationFactor
	if replication <= 0 {
		replication = -1
	}
	var configs map[string]*string
	if len(args.Configs) > 0 {
		configs = make(map[string]*string, len(args.Configs))
		for k, v := range args.Configs {
			configs[k] = kadm.StringPtr(v)
		}
	}

	adm, err := h.cm.AdminClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responses, err := adm.CreateTopics(ctx, partitions, replication, configs, args.Names...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create topics: %v", err)), nil
	}

	results := make([]map[string]any, 0, len(responses))
	for _, resp := range responses.Sorted() {
		r := map[string]any{"topic": resp.Topic, "created": resp.Err == nil}
		if resp.Err != nil {
			r["error"] = resp.Err.Error()
		}
		results = append(results, r)
	}
	return structuredResult(map[string]any{"results": results})
}

// DeleteTopics deletes the named topics.
func (h *Handler) DeleteTopics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Names []string `json:"names"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(args.Names) == 0 {
		return mcp.NewToolResultError("names must not be empty"), nil
	}

	adm, err := h.cm.AdminClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responses, err := adm.DeleteTopics(ctx, args.Names...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete topics: %v", err)), nil
	}

	results := make([]map[string]any, 0, len(responses))
	for _, resp := range responses.Sorted() {
		r := map[string]any{"topic": resp.Topic, "deleted": resp.Err == nil}
		if resp.Err != nil {
			r["error"] = resp.Err.Error()
		}
		results = append(results, r)
	}
	return structuredResult(map[string]any{"results": results})
}

// ProduceMessage produces a single record and reports where it landed.
func (h *Handler) ProduceMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Topic string `json:"topic"`
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Topic == "" {
		return mcp.NewToolResultError("topic is required"), nil
	}
	if args.Value == "" {
		return mcp.NewToolResultError("value is required"), nil
	}

	producer, err := h.cm.ProducerClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec := &kgo.Record{Topic: args.Topic, Value: []byte(args.Value)}
	if args.Key != "" {
		rec.Key = []byte(args.Key)
	}
	if err := producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to produce to %s: %v", args.Topic, err)), nil
	}

	return structuredResult(map[string]any{
		"topic":     rec.Topic,
		"partition": rec.Partition,
		"offset":    rec.Offset,
	})
}

// ConsumeMessages polls records from the given topics until the message cap or
// the timeout is reached. Each transport session gets its own consumer-group
// identity, so parallel sessions don't steal each other's offsets.
func (h *Handler) ConsumeMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Topics         []string `json:"topics"`
		MaxMessages    int      `json:"max_messages"`
		TimeoutSeconds int      `json:"timeout_seconds"`
		FromBeginning  bool     `json:"from_beginning"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(args.Topics) == 0 {
		return mcp.NewToolResultError("topics must not be empty"), nil
	}

	maxMessages := args.MaxMessages
	if maxMessages <= 0 {
		maxMessages = defaultConsumeMax
	}
	if maxMessages > maxConsumeMax {
		maxMessages = maxConsumeMax
	}
	timeout := time.Duration(args.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultConsumeTimeout
	}
	if timeout > maxConsumeTimeout {
		timeout = maxConsumeTimeout
	}

	sessionID, _ := session.IDFromContext(ctx)
	consumer, err := h.cm.Consumer(confluent.ConsumerOptions{
		SessionID:     sessionID,
		Topics:        args.Topics,
		FromBeginning: args.FromBeginning,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type message struct {
		Topic     string    `json:"topic"`
		Partition int32     `json:"partition"`
		Offset    int64     `json:"offset"`
		Key       string    `json:"key,omitempty"`
		Value     string    `json:"value"`
		Timestamp time.Time `json:"timestamp"`
	}
	messages := make([]message, 0, maxMessages)

	for len(messages) < maxMessages {
		fetches := consumer.PollFetches(pollCtx)
		if fetches.IsClientClosed() {
			break
		}

		var fetchErr error
		fetches.EachError(func(_ string, _ int32, err error) {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return
			}
			fetchErr = err
		})
		if fetchErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch: %v", fetchErr)), nil
		}

		fetches.EachRecord(func(rec *kgo.Record) {
			if len(messages) >= maxMessages {
				return
			}
			messages = append(messages, message{
				Topic:     rec.Topic,
				Partition: rec.Partition,
				Offset:    rec.Offset,
				Key:       string(rec.Key),
				Value:     string(rec.Value),
				Timestamp: rec.Timestamp,
			})
		})

		if pollCtx.Err() != nil {
			break
		}
	}

	return structuredResult(map[string]any{"messages": messages, "count": len(messages)})
}

// ListConsumerGroups lists the consumer groups known to the cluster.
func (h *Handler) ListConsumerGroups(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	adm, err := h.cm.AdminClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	groups, err := adm.ListGroups(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list consumer groups: %v", err)), nil
	}

	type groupInfo struct {
		Group        string `json:"group"`
		State        string `json:"state"`
		ProtocolType string `json:"protocol_type"`
	}
	out := make([]groupInfo, 0, len(groups))
	for _, g := range groups.Sorted() {
		out = append(out, groupInfo{Group: g.Group, State: g.State, ProtocolType: g.ProtocolType})
	}
	return structuredResult(map[string]any{"groups": out})
}

// GetTopicConfig returns the broker-side configuration of one topic.
func (h *Handler) GetTopicConfig(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Topic string `json:"topic"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Topic == "" {
		return mcp.NewToolResultError("topic is required"), nil
	}

	adm, err := h.cm.AdminClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resources, err := adm.DescribeTopicConfigs(ctx, args.Topic)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to describe config for %s: %v", args.Topic, err)), nil
	}

	configs := make(map[string]string)
	for _, res := range resources {
		if res.Err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to describe config for %s: %v", args.Topic, res.Err)), nil
		}
		for _, c := range res.Configs {
			configs[c.Key] = c.MaybeValue()
		}
	}
	return structuredResult(map[string]any{"topic": args.Topic, "configs": configs})
}

// AlterTopicConfig sets one configuration key on a topic.
func (h *Handler) AlterTopicConfig(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Topic string `json:"topic"`
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Topic == "" || args.Key == "" {
		return mcp.NewToolResultError("topic and key are required"), nil
	}

	adm, err := h.cm.AdminClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	alter := []kadm.AlterConfig{{Op: kadm.SetConfig, Name: args.Key, Value: kadm.StringPtr(args.Value)}}
	responses, err := adm.AlterTopicConfigs(ctx, alter, args.Topic)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to alter config for %s: %v", args.Topic, err)), nil
	}
	for _, resp := range responses {
		if resp.Err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to alter config for %s: %v", resp.Name, resp.Err)), nil
		}
	}

	return structuredResult(map[string]any{"topic": args.Topic, "key": args.Key, "value": args.Value})
}

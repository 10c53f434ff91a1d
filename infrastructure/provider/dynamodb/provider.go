package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"ontoview/application/ports"
	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	pkgerrors "ontoview/pkg/errors"
)

// DynamoDB caps BatchGetItem at 100 keys per request
const batchGetLimit = 100

// Provider resolves entity data and links from a single DynamoDB table.
//
// Entity items:  PK=ENTITY#<id>  SK=METADATA
// Link items:    PK=ENTITY#<source>  SK=LINK#<id>, mirrored on GSI1 under
// the target so both directions are one query each.
type Provider struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewProvider creates a DynamoDB-backed data provider
func NewProvider(client *dynamodb.Client, tableName string, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

type entityItem struct {
	PK         string              `dynamodbav:"PK"`
	SK         string              `dynamodbav:"SK"`
	EntityType string              `dynamodbav:"EntityType"`
	EntityID   string              `dynamodbav:"EntityID"`
	Types      []string            `dynamodbav:"Types,omitempty"`
	Label      string              `dynamodbav:"Label,omitempty"`
	Properties map[string][]string `dynamodbav:"Properties,omitempty"`
}

type linkItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	LinkID     string `dynamodbav:"LinkID"`
	SourceID   string `dynamodbav:"SourceID"`
	TargetID   string `dynamodbav:"TargetID"`
	TypeIRI    string `dynamodbav:"TypeIRI"`
}

func entityKey(id valueobjects.ElementID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("ENTITY#%s", id.String())},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

// FetchElementData resolves entity metadata via BatchGetItem, chunked to the
// service limit. Identities with no item are omitted from the result.
func (p *Provider) FetchElementData(ctx context.Context, ids []valueobjects.ElementID) (map[valueobjects.ElementID]entities.ElementData, error) {
	result := make(map[valueobjects.ElementID]entities.ElementData, len(ids))

	for start := 0; start < len(ids); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, entityKey(id))
		}

		for len(keys) > 0 {
			output, err := p.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: map[string]types.KeysAndAttributes{
					p.tableName: {Keys: keys},
				},
			})
			if err != nil {
				p.logger.Error("entity batch fetch failed",
					zap.Int("keys", len(keys)),
					zap.Error(err),
				)
				return nil, pkgerrors.NewProviderError("FetchElementData", err)
			}

			for _, raw := range output.Responses[p.tableName] {
				var item entityItem
				if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
					p.logger.Warn("skipping malformed entity item", zap.Error(err))
					continue
				}
				id, err := valueobjects.NewElementIDFromString(item.EntityID)
				if err != nil {
					continue
				}
				result[id] = entities.ElementData{
					Types:      item.Types,
					Label:      item.Label,
					Properties: item.Properties,
				}
			}

			keys = output.UnprocessedKeys[p.tableName].Keys
		}
	}

	return result, nil
}

// FetchLinks queries both link directions per identity and deduplicates by
// link id, preserving discovery order
func (p *Provider) FetchLinks(ctx context.Context, ids []valueobjects.ElementID) ([]ports.LinkDescriptor, error) {
	seen := make(map[string]bool)
	var result []ports.LinkDescriptor

	for _, id := range ids {
		partition := fmt.Sprintf("ENTITY#%s", id.String())

		outgoing, err := p.queryLinks(ctx, "PK", "SK", partition, nil)
		if err != nil {
			return nil, err
		}
		incoming, err := p.queryLinks(ctx, "GSI1PK", "GSI1SK", partition, aws.String("GSI1"))
		if err != nil {
			return nil, err
		}

		for _, item := range append(outgoing, incoming...) {
			if seen[item.LinkID] {
				continue
			}
			descriptor, err := item.toDescriptor()
			if err != nil {
				p.logger.Warn("skipping malformed link item",
					zap.String("link_id", item.LinkID),
					zap.Error(err),
				)
				continue
			}
			seen[item.LinkID] = true
			result = append(result, descriptor)
		}
	}

	return result, nil
}

// queryLinks pages through one partition's link items
func (p *Provider) queryLinks(ctx context.Context, hashKey, rangeKey, partition string, indexName *string) ([]linkItem, error) {
	keyCondition := expression.Key(hashKey).Equal(expression.Value(partition)).
		And(expression.Key(rangeKey).BeginsWith("LINK#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, pkgerrors.NewProviderError("FetchLinks", err)
	}

	var items []linkItem
	var startKey map[string]types.AttributeValue
	for {
		output, err := p.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(p.tableName),
			IndexName:                 indexName,
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			p.logger.Error("link query failed",
				zap.String("partition", partition),
				zap.Error(err),
			)
			return nil, pkgerrors.NewProviderError("FetchLinks", err)
		}

		for _, raw := range output.Items {
			var item linkItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				p.logger.Warn("skipping malformed link item", zap.Error(err))
				continue
			}
			items = append(items, item)
		}

		if output.LastEvaluatedKey == nil {
			break
		}
		startKey = output.LastEvaluatedKey
	}
	return items, nil
}

func (i linkItem) toDescriptor() (ports.LinkDescriptor, error) {
	linkID, err := valueobjects.NewLinkIDFromString(i.LinkID)
	if err != nil {
		return ports.LinkDescriptor{}, err
	}
	sourceID, err := valueobjects.NewElementIDFromString(i.SourceID)
	if err != nil {
		return ports.LinkDescriptor{}, err
	}
	targetID, err := valueobjects.NewElementIDFromString(i.TargetID)
	if err != nil {
		return ports.LinkDescriptor{}, err
	}
	return ports.LinkDescriptor{
		ID:       linkID,
		SourceID: sourceID,
		TargetID: targetID,
		TypeIRI:  i.TypeIRI,
	}, nil
}

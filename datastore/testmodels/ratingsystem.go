package testmodels

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
)

type RatingSystem struct {

	// Timestamp when the rating system was created.
	// Required: true
	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"CreatedAt" dynamodbav:"-"`

	// A description of the rating system.
	// Required: true
	Description *string `json:"Description" dynamodbav:"Description"`

	// Unique identifier for the rating system.
	// Required: true
	ID *string `json:"Id" dynamodbav:"Id"`

	// Name of the rating system.
	// Required: true
	Name *string `json:"Name" dynamodbav:"Name"`

	// site Url
	SiteURL string `json:"SiteUrl,omitempty" dynamodbav:"SiteUrl,omitempty"`

	// Timestamp when the rating system was last updated.
	// Required: true
	// Format: date-time
	UpdatedAt *strfmt.DateTime `json:"UpdatedAt" dynamodbav:"-"`
}

// Item marshals the rating system into a DynamoDB item. Timestamps are stored
// as RFC 3339 strings.
func (r RatingSystem) Item() (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rating system: %w", err)
	}
	if r.CreatedAt != nil {
		item["CreatedAt"] = &types.AttributeValueMemberS{Value: r.CreatedAt.String()}
	}
	if r.UpdatedAt != nil {
		item["UpdatedAt"] = &types.AttributeValueMemberS{Value: r.UpdatedAt.String()}
	}
	return item, nil
}

// NewRatingSystems returns n fixtures with ids rs-1 to rs-n, all created at at.
func NewRatingSystems(n int, at time.Time) []RatingSystem {
	ts := strfmt.DateTime(at)
	records := make([]RatingSystem, n)
	for i := range records {
		records[i] = RatingSystem{
			ID:          aws.String(fmt.Sprintf("rs-%d", i+1)),
			Name:        aws.String(fmt.Sprintf("Rating System %d", i+1)),
			Description: aws.String("fixture"),
			CreatedAt:   &ts,
			UpdatedAt:   &ts,
		}
	}
	return records
}

// PutRequests marshals records into batch write put requests.
func PutRequests(records []RatingSystem) ([]types.WriteRequest, error) {
	requests := make([]types.WriteRequest, 0, len(records))
	for _, r := range records {
		item, err := r.Item()
		if err != nil {
			return nil, err
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	return requests, nil
}

package persistsummary

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	awsclient "grokipedia-x/internal/common/aws"
	"grokipedia-x/internal/common/config"
	"grokipedia-x/internal/common/database"
	"grokipedia-x/internal/models"
)

type fakeCollection struct {
	filter any
	update any
	opts   []*options.UpdateOptions
	err    error
}

func (c *fakeCollection) UpdateOne(_ context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongodriver.UpdateResult, error) {
	c.filter, c.update, c.opts = filter, update, opts
	if c.err != nil {
		return nil, c.err
	}
	return &mongodriver.UpdateResult{UpsertedCount: 1, UpsertedID: filter.(bson.M)["_id"]}, nil
}

func TestMongoStore_Upsert(t *testing.T) {
	coll := &fakeCollection{}
	store := newMongoStore(nil, coll, "grokipedia", "summaries", time.Second)

	require.NoError(t, store.Upsert(context.Background(), "grok-20250102T030405.006Z", testRecord()))

	assert.Equal(t, bson.M{"_id": "grok-20250102T030405.006Z"}, coll.filter)
	update := coll.update.(bson.M)
	assert.Equal(t, bson.M{"model": "grok-4-fast-non-reasoning", "summary": testRecord().Summary}, update["$set"])
	assert.Equal(t, bson.M{"updated_at": true}, update["$currentDate"])
	require.Len(t, coll.opts, 1)
	require.NotNil(t, coll.opts[0].Upsert)
	assert.True(t, *coll.opts[0].Upsert)

	assert.Equal(t, `MongoDB collection "summaries" (db: "grokipedia")`, store.Target())
	assert.NoError(t, store.Close(context.Background()))

	coll.err = errors.New("server selection error")
	assert.Error(t, store.Upsert(context.Background(), "id", testRecord()))
}

func TestMongoStore_Upsert_KeepsNumbers(t *testing.T) {
	coll := &fakeCollection{}
	store := newMongoStore(nil, coll, "grokipedia", "summaries", time.Second)

	record := models.SummaryRecord{
		Model: "grok-4",
		Summary: []interface{}{map[string]interface{}{
			"post_id":   json.Number("1989418137272422538"),
			"unsigned":  json.Number("18446744073709551615"),
			"score":     json.Number("0.75"),
			"citations": []interface{}{json.Number("2")},
			"label":     "7",
		}},
	}
	require.NoError(t, store.Upsert(context.Background(), "grok-4", record))

	set := coll.update.(bson.M)["$set"].(bson.M)
	entry := set["summary"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, int64(1989418137272422538), entry["post_id"])
	assert.Equal(t, 0.75, entry["score"])
	assert.Equal(t, []interface{}{int64(2)}, entry["citations"])
	assert.Equal(t, "7", entry["label"])

	wide, ok := entry["unsigned"].(primitive.Decimal128)
	require.True(t, ok)
	assert.Equal(t, "18446744073709551615", wide.String())

	// The caller's record is left untouched.
	assert.Equal(t, json.Number("1989418137272422538"), record.Summary.([]interface{})[0].(map[string]interface{})["post_id"])
}

type fakeTransport struct {
	status int
	req    *http.Request
	body   []byte
}

func (f *fakeTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	f.req = r
	if r.Body != nil {
		f.body, _ = io.ReadAll(r.Body)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{
		StatusCode: f.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(`{"result":"created"}`)),
		Request:    r,
	}, nil
}

func TestElasticsearchStore_Upsert(t *testing.T) {
	transport := &fakeTransport{status: http.StatusCreated}
	client, err := database.NewElasticsearch(config.ElasticsearchConfig{URL: "http://es.local:9200"}, transport)
	require.NoError(t, err)

	store := newElasticsearchStore(client, "summaries", time.Second)
	store.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, store.Upsert(context.Background(), "grok-4", testRecord()))

	require.NotNil(t, transport.req)
	assert.Equal(t, http.MethodPut, transport.req.Method)
	assert.Equal(t, "/summaries/_doc/grok-4", transport.req.URL.Path)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(transport.body, &doc))
	assert.Equal(t, "grok-4-fast-non-reasoning", doc["model"])
	assert.Equal(t, "2025-01-02T03:04:05Z", doc["updated_at"])
	assert.Len(t, doc["summary"], 1)

	transport.status = http.StatusBadRequest
	assert.Error(t, store.Upsert(context.Background(), "grok-4", testRecord()))
}

func TestPostgresStore_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store := newPostgresStore(database.NewPostgresFromDB(db), "summaries", time.Second)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "summaries"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "summaries" \(id, model, summary, updated_at\)`).
		WithArgs("grok-4", "grok-4-fast-non-reasoning", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("grok-4", "grok-4-fast-non-reasoning", sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectClose()

	require.NoError(t, store.ensureTable(context.Background()))
	require.NoError(t, store.Upsert(context.Background(), "grok-4", testRecord()))
	assert.Error(t, store.Upsert(context.Background(), "grok-4", testRecord()))
	require.NoError(t, store.Close(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

type fakePublisher struct {
	input *sns.PublishInput
}

func (p *fakePublisher) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	p.input = in
	id := "sns-42"
	return &sns.PublishOutput{MessageId: &id}, nil
}

func TestSNSNotifier_Notify(t *testing.T) {
	pub := &fakePublisher{}
	n := NewSNSNotifier(awsclient.NewSNSClientFrom(pub), "arn:aws:sns:us-east-1:123456789012:summaries")

	id, err := n.Notify(context.Background(), Notification{DocumentID: "grok-4", Model: "grok-4", Entries: 3, Path: "summary.json", Stored: true})
	require.NoError(t, err)
	assert.Equal(t, "sns-42", id)

	require.NotNil(t, pub.input)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:summaries", *pub.input.TopicArn)
	assert.Equal(t, notificationSubject, *pub.input.Subject)
	assert.JSONEq(t, `{"documentId":"grok-4","model":"grok-4","entries":3,"path":"summary.json","stored":true}`, *pub.input.Message)
	assert.Equal(t, "3", *pub.input.MessageAttributes["entries"].StringValue)
}

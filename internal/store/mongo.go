package store

import (
	"context"
	"regexp"
	"time"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoStore struct {
	client    *mongo.Client
	users     *mongo.Collection
	campaigns *mongo.Collection
	donations *mongo.Collection
	comments  *mongo.Collection
	now       func() time.Time
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetRegistry(NewRegistry()).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOptions)

	if err != nil {
		return nil, err
	}

	db := client.Database(database)

	return &MongoStore{
		client:    client,
		users:     db.Collection("users"),
		campaigns: db.Collection("campaigns"),
		donations: db.Collection("donations"),
		comments:  db.Collection("comments"),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Migrate(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.campaigns: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "creator_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "deadline", Value: 1}}},
		},
		s.donations: {
			{Keys: bson.D{{Key: "payment_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "campaign_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "donor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		s.comments: {
			{Keys: bson.D{{Key: "campaign_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for collection, indexModels := range indexes {
		if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
			return err
		}
	}

	return nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	user.Prepare(s.now())

	_, err := s.users.InsertOne(ctx, user)

	return translate(err, "User")
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"_id": id}, "User")
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"email": email}, "User")
}

func (s *MongoStore) GetUsers(ctx context.Context, ids []string) (map[string]models.User, error) {
	result := make(map[string]models.User, len(ids))

	if len(ids) == 0 {
		return result, nil
	}

	users, err := findMany[models.User](ctx, s.users, bson.M{"_id": bson.M{"$in": ids}}, nil, "User")

	if err != nil {
		return nil, err
	}

	for _, user := range users {
		result[user.ID] = user
	}

	return result, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	return findMany[models.User](ctx, s.users, bson.M{}, newestFirst(), "User")
}

func (s *MongoStore) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*models.User, error) {
	set := bson.M{"updated_at": s.now()}

	if patch.Name != nil {
		set["name"] = *patch.Name
	}

	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}

	if patch.SocialLinks != nil {
		set["social_links"] = *patch.SocialLinks
	}

	if patch.ProfilePic != nil {
		set["profile_pic"] = *patch.ProfilePic
	}

	return findOneAndUpdate[models.User](ctx, s.users, bson.M{"_id": id}, bson.M{"$set": set}, "User")
}

func (s *MongoStore) SetUserActive(ctx context.Context, id string, active bool) (*models.User, error) {
	update := bson.M{"$set": bson.M{"is_active": active, "updated_at": s.now()}}

	return findOneAndUpdate[models.User](ctx, s.users, bson.M{"_id": id}, update, "User")
}

func (s *MongoStore) CountUsers(ctx context.Context) (int64, error) {
	count, err := s.users.CountDocuments(ctx, bson.M{})
	return count, translate(err, "User")
}

func (s *MongoStore) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	campaign.Prepare(s.now())

	_, err := s.campaigns.InsertOne(ctx, campaign)

	return translate(err, "Campaign")
}

func (s *MongoStore) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	return findOne[models.Campaign](ctx, s.campaigns, bson.M{"_id": id}, "Campaign")
}

func (s *MongoStore) GetCampaigns(ctx context.Context, ids []string) (map[string]models.Campaign, error) {
	result := make(map[string]models.Campaign, len(ids))

	if len(ids) == 0 {
		return result, nil
	}

	campaigns, err := findMany[models.Campaign](ctx, s.campaigns, bson.M{"_id": bson.M{"$in": ids}}, nil, "Campaign")

	if err != nil {
		return nil, err
	}

	for _, campaign := range campaigns {
		result[campaign.ID] = campaign
	}

	return result, nil
}

func (s *MongoStore) ListCampaigns(ctx context.Context, q CampaignQuery) ([]models.Campaign, int64, error) {
	filter := campaignFilter(q)

	total, err := s.campaigns.CountDocuments(ctx, filter)

	if err != nil {
		return nil, 0, translate(err, "Campaign")
	}

	direction := 1
	if q.SortDesc {
		direction = -1
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: sortColumn(q.SortBy), Value: direction}, {Key: "_id", Value: direction}}).
		SetSkip(int64(q.Offset))

	if q.Limit > 0 {
		findOptions.SetLimit(int64(q.Limit))
	}

	campaigns, err := findMany[models.Campaign](ctx, s.campaigns, filter, findOptions, "Campaign")

	if err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func campaignFilter(q CampaignQuery) bson.M {
	filter := bson.M{}

	if q.Status != "" {
		filter["status"] = q.Status
	}

	if q.CreatorID != "" {
		filter["creator_id"] = q.CreatorID
	}

	if q.Category != "" {
		filter["category"] = q.Category
	}

	if q.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}

	return filter
}

func (s *MongoStore) UpdateCampaign(ctx context.Context, id string, patch CampaignPatch) (*models.Campaign, error) {
	set := bson.M{"updated_at": s.now()}

	if patch.Title != nil {
		set["title"] = *patch.Title
	}

	if patch.Description != nil {
		set["description"] = *patch.Description
	}

	if patch.ShortDescription != nil {
		set["short_description"] = *patch.ShortDescription
	}

	if patch.Images != nil {
		set["images"] = *patch.Images
	}

	if patch.Category != nil {
		set["category"] = *patch.Category
	}

	return findOneAndUpdate[models.Campaign](ctx, s.campaigns, bson.M{"_id": id}, bson.M{"$set": set}, "Campaign")
}

func (s *MongoStore) AppendCampaignUpdate(ctx context.Context, id string, update models.CampaignUpdate) (*models.Campaign, error) {
	change := bson.M{
		"$push": bson.M{"updates": update},
		"$set":  bson.M{"updated_at": s.now()},
	}

	return findOneAndUpdate[models.Campaign](ctx, s.campaigns, bson.M{"_id": id}, change, "Campaign")
}

func (s *MongoStore) TransitionCampaignStatus(ctx context.Context, id string, from, to models.CampaignStatus) (*models.Campaign, error) {
	update := bson.M{"$set": bson.M{"status": to, "updated_at": s.now()}}

	campaign, err := findOneAndUpdate[models.Campaign](ctx, s.campaigns, bson.M{"_id": id, "status": from}, update, "Campaign")

	if err == nil {
		return campaign, nil
	}

	if _, getErr := s.GetCampaign(ctx, id); getErr != nil {
		return nil, getErr
	}

	if types.KindOf(err) == types.KindNotFound {
		return nil, types.Conflict("Campaign status changed concurrently")
	}

	return nil, err
}

func (s *MongoStore) CompleteExpiredCampaigns(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.campaigns.UpdateMany(ctx,
		bson.M{"status": models.CampaignActive, "deadline": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": models.CampaignCompleted, "updated_at": s.now()}},
	)

	if err != nil {
		return 0, translate(err, "Campaign")
	}

	return res.ModifiedCount, nil
}

func (s *MongoStore) CountCampaigns(ctx context.Context) (int64, error) {
	count, err := s.campaigns.CountDocuments(ctx, bson.M{})
	return count, translate(err, "Campaign")
}

// RecordDonation works without multi-document transactions, which need a
// replica set: if the campaign increment fails the donation is removed again.
func (s *MongoStore) RecordDonation(ctx context.Context, donation *models.Donation) (*models.Campaign, error) {
	donation.Prepare(s.now())

	if _, err := s.donations.InsertOne(ctx, donation); err != nil {
		return nil, translate(err, "Donation")
	}

	if donation.Status != models.PaymentCompleted {
		return s.GetCampaign(ctx, donation.CampaignID)
	}

	campaign, err := s.applyDelta(ctx, donation.CampaignID, donation.Amount, 1)

	if err != nil {
		if _, delErr := s.donations.DeleteOne(context.WithoutCancel(ctx), bson.M{"_id": donation.ID}); delErr != nil {
			return nil, types.Internal("donation recorded without campaign totals", delErr)
		}

		return nil, err
	}

	return campaign, nil
}

func (s *MongoStore) TransitionDonationStatus(ctx context.Context, paymentID string, to models.PaymentStatus) (*models.Donation, *models.Campaign, error) {
	donation, err := s.GetDonationByPaymentID(ctx, paymentID)

	if err != nil {
		return nil, nil, err
	}

	from := donation.Status

	if from == to {
		return donation, nil, nil
	}

	res, err := s.donations.UpdateOne(ctx,
		bson.M{"_id": donation.ID, "payment_status": from},
		bson.M{"$set": bson.M{"payment_status": to, "updated_at": s.now()}},
	)

	if err != nil {
		return nil, nil, translate(err, "Donation")
	}

	if res.MatchedCount == 0 {
		return nil, nil, types.Conflict("Donation status changed concurrently")
	}

	donation.Status = to

	amount, count := LedgerDelta(from, to, donation.Amount)

	if count == 0 {
		return donation, nil, nil
	}

	campaign, err := s.applyDelta(ctx, donation.CampaignID, amount, count)

	if err != nil {
		return nil, nil, err
	}

	return donation, campaign, nil
}

func (s *MongoStore) applyDelta(ctx context.Context, campaignID string, amount decimal.Decimal, count int64) (*models.Campaign, error) {
	update := bson.M{
		"$inc": bson.M{"raised_amount": amount, "donors_count": count},
		"$set": bson.M{"updated_at": s.now()},
	}

	return findOneAndUpdate[models.Campaign](ctx, s.campaigns, bson.M{"_id": campaignID}, update, "Campaign")
}

func (s *MongoStore) GetDonationByPaymentID(ctx context.Context, paymentID string) (*models.Donation, error) {
	return findOne[models.Donation](ctx, s.donations, bson.M{"payment_id": paymentID}, "Donation")
}

func (s *MongoStore) ListDonations(ctx context.Context, q DonationQuery) ([]models.Donation, error) {
	filter := bson.M{}

	if q.CampaignID != "" {
		filter["campaign_id"] = q.CampaignID
	}

	if q.DonorID != "" {
		filter["donor_id"] = q.DonorID
	}

	findOptions := newestFirst()

	if q.Limit > 0 {
		findOptions.SetLimit(int64(q.Limit))
	}

	return findMany[models.Donation](ctx, s.donations, filter, findOptions, "Donation")
}

func (s *MongoStore) CountDonations(ctx context.Context) (int64, error) {
	count, err := s.donations.CountDocuments(ctx, bson.M{})
	return count, translate(err, "Donation")
}

func (s *MongoStore) SumCompletedDonations(ctx context.Context) (decimal.Decimal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"payment_status": models.PaymentCompleted}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}

	cursor, err := s.donations.Aggregate(ctx, pipeline)

	if err != nil {
		return decimal.Zero, translate(err, "Donation")
	}

	var rows []struct {
		Total decimal.Decimal `bson:"total"`
	}

	if err := cursor.All(ctx, &rows); err != nil {
		return decimal.Zero, translate(err, "Donation")
	}

	if len(rows) == 0 {
		return decimal.Zero, nil
	}

	return rows[0].Total, nil
}

func (s *MongoStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.Prepare(s.now())

	_, err := s.comments.InsertOne(ctx, comment)

	return translate(err, "Comment")
}

func (s *MongoStore) ListComments(ctx context.Context, campaignID string) ([]models.Comment, error) {
	return findMany[models.Comment](ctx, s.comments, bson.M{"campaign_id": campaignID}, newestFirst(), "Comment")
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
}

func findOne[T any](ctx context.Context, c *mongo.Collection, filter bson.M, entity string) (*T, error) {
	var doc T

	if err := c.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, entity)
	}

	return &doc, nil
}

func findMany[T any](ctx context.Context, c *mongo.Collection, filter bson.M, opts *options.FindOptions, entity string) ([]T, error) {
	var findOptions []*options.FindOptions
	if opts != nil {
		findOptions = append(findOptions, opts)
	}

	cursor, err := c.Find(ctx, filter, findOptions...)

	if err != nil {
		return nil, translate(err, entity)
	}

	docs := []T{}

	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, entity)
	}

	return docs, nil
}

func findOneAndUpdate[T any](ctx context.Context, c *mongo.Collection, filter, update bson.M, entity string) (*T, error) {
	var doc T

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	if err := c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, translate(err, entity)
	}

	return &doc, nil
}

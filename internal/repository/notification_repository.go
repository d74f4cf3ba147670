package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estatehub/realtime/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DedupQuery identifies an earlier notification of the same kind between the
// same actor and target. A nil Since means no time bound.
type DedupQuery struct {
	Recipient primitive.ObjectID
	SenderID  *primitive.ObjectID
	Type      string
	ListingID *primitive.ObjectID
	Since     *time.Time
}

func (q DedupQuery) filter() bson.M {
	filter := bson.M{
		"recipient": q.Recipient,
		"meta.type": q.Type,
	}
	if q.SenderID != nil {
		filter["sender.id"] = *q.SenderID
	}
	if q.ListingID != nil {
		filter["meta.listing_id"] = *q.ListingID
	}
	if q.Since != nil {
		filter["created_at"] = bson.M{"$gte": *q.Since}
	}
	return filter
}

type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notifications"),
	}
}

// EnsureIndexes creates the recipient listing index and the unique partial
// index that makes like suppression atomic.
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "recipient", Value: 1},
				{Key: "sender.id", Value: 1},
				{Key: "meta.listing_id", Value: 1},
			},
			Options: options.Index().
				SetName("uniq_like_per_sender_listing").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"meta.type": models.TypeLike}),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}

// CreateNotification inserts a new notification
func (r *NotificationRepository) CreateNotification(ctx context.Context, notif *models.Notification) error {
	stampNotification(notif)

	result, err := r.collection.InsertOne(ctx, notif)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert notification")
		return fmt.Errorf("failed to create notification: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		notif.ID = id
	}
	return nil
}

// InsertLikeOnce inserts a like notification unless the unique index already
// holds one for the same recipient, sender and listing. On conflict the
// stored record is returned with created=false.
func (r *NotificationRepository) InsertLikeOnce(ctx context.Context, notif *models.Notification) (*models.Notification, bool, error) {
	stampNotification(notif)

	result, err := r.collection.InsertOne(ctx, notif)
	if err == nil {
		if id, ok := result.InsertedID.(primitive.ObjectID); ok {
			notif.ID = id
		}
		return notif, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		logrus.WithError(err).Error("Failed to insert like notification")
		return nil, false, fmt.Errorf("failed to create notification: %w", err)
	}

	q := DedupQuery{
		Recipient: notif.Recipient,
		Type:      models.TypeLike,
		ListingID: notif.Meta.ListingID,
	}
	if notif.Sender != nil {
		q.SenderID = &notif.Sender.ID
	}
	existing, err := r.FindDuplicate(ctx, q)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("like notification conflicted but no record was found")
	}
	return existing, false, nil
}

// FindDuplicate returns the oldest matching notification, or nil when none exists.
func (r *NotificationRepository) FindDuplicate(ctx context.Context, q DedupQuery) (*models.Notification, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})

	var notif models.Notification
	err := r.collection.FindOne(ctx, q.filter(), opts).Decode(&notif)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"recipient": q.Recipient.Hex(),
			"type":      q.Type,
			"error":     err,
		}).Warn("Failed to look up duplicate notification")
		return nil, fmt.Errorf("failed to look up notification: %w", err)
	}
	return &notif, nil
}

// GetUserNotifications returns a recipient's notifications, newest first.
func (r *NotificationRepository) GetUserNotifications(ctx context.Context, recipient primitive.ObjectID, skip, limit int64) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"recipient": recipient}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepository) CountUserNotifications(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"recipient": recipient})
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

// MarkAsRead flips is_read on a notification owned by recipient. It returns
// ErrNotFound when no such notification exists.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now()}}

	var notif models.Notification
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "recipient": recipient}, update, opts).Decode(&notif)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return &notif, nil
}

// MarkAllRead marks every unread notification of recipient as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"recipient": recipient, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"recipient": recipient.Hex(),
		"modified":  result.ModifiedCount,
	}).Info("Marked notifications as read")
	return result.ModifiedCount, nil
}

func stampNotification(notif *models.Notification) {
	if notif.ID.IsZero() {
		notif.ID = primitive.NewObjectID()
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}
	if notif.UpdatedAt.IsZero() {
		notif.UpdatedAt = notif.CreatedAt
	}
}

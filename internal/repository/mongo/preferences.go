package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"playbackengine/internal/domain"
)

type preferencesDoc struct {
	ID                        string  `bson:"_id"`
	Volume                    float64 `bson:"volume"`
	IsMuted                   bool    `bson:"isMuted"`
	PlaybackRate              float64 `bson:"playbackRate"`
	SeekIntervalSeconds       float64 `bson:"seekIntervalSeconds"`
	Autoplay                  bool    `bson:"autoplay"`
	UpNextCountdownSeconds    int     `bson:"upNextCountdownSeconds"`
	PreferredSubtitleLang     string  `bson:"preferredSubtitleLang"`
	PreferredAudioLang        string  `bson:"preferredAudioLang"`
	PreferredQuality          int     `bson:"preferredQuality"`
	SubtitleFontSize          int     `bson:"subtitleFontSize"`
	SubtitleTextColor         string  `bson:"subtitleTextColor"`
	SubtitleBackgroundOpacity float64 `bson:"subtitleBackgroundOpacity"`
	UpdatedAt                 int64   `bson:"updatedAt"`
}

type PreferencesRepository struct {
	collection *mongo.Collection
}

func NewPreferencesRepository(client *mongo.Client, dbName string) *PreferencesRepository {
	return &PreferencesRepository{collection: client.Database(dbName).Collection("player_preferences")}
}

func (r *PreferencesRepository) Get(ctx context.Context, userID string) (domain.Preferences, bool, error) {
	var doc preferencesDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Preferences{}, false, nil
		}
		return domain.Preferences{}, false, err
	}
	return domain.Preferences{
		Volume:                    doc.Volume,
		IsMuted:                   doc.IsMuted,
		PlaybackRate:              doc.PlaybackRate,
		SeekIntervalSeconds:       doc.SeekIntervalSeconds,
		Autoplay:                  doc.Autoplay,
		UpNextCountdownSeconds:    doc.UpNextCountdownSeconds,
		PreferredSubtitleLang:     doc.PreferredSubtitleLang,
		PreferredAudioLang:        doc.PreferredAudioLang,
		PreferredQuality:          doc.PreferredQuality,
		SubtitleFontSize:          doc.SubtitleFontSize,
		SubtitleTextColor:         doc.SubtitleTextColor,
		SubtitleBackgroundOpacity: doc.SubtitleBackgroundOpacity,
	}, true, nil
}

func (r *PreferencesRepository) Put(ctx context.Context, userID string, prefs domain.Preferences) error {
	prefs = prefs.Normalize()
	update := bson.M{
		"$set": bson.M{
			"volume":                    prefs.Volume,
			"isMuted":                   prefs.IsMuted,
			"playbackRate":              prefs.PlaybackRate,
			"seekIntervalSeconds":       prefs.SeekIntervalSeconds,
			"autoplay":                  prefs.Autoplay,
			"upNextCountdownSeconds":    prefs.UpNextCountdownSeconds,
			"preferredSubtitleLang":     prefs.PreferredSubtitleLang,
			"preferredAudioLang":        prefs.PreferredAudioLang,
			"preferredQuality":          prefs.PreferredQuality,
			"subtitleFontSize":          prefs.SubtitleFontSize,
			"subtitleTextColor":         prefs.SubtitleTextColor,
			"subtitleBackgroundOpacity": prefs.SubtitleBackgroundOpacity,
			"updatedAt":                 time.Now().Unix(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	return err
}

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chachabrian/tripshare-backend/internal/models"
	"github.com/chachabrian/tripshare-backend/pkg/utils"
)

// simulator drives a fake vehicle along a straight line between two points,
// posting a location sample to the API at each step. Useful for exercising
// the live subscription feed without a real device.
func main() {
	var (
		baseURL  = flag.String("base", "http://localhost:8080", "API base URL")
		token    = flag.String("token", "", "driver JWT; minted locally from JWT_SECRET and -driver when empty")
		driverID = flag.Uint("driver", 0, "driver user id, used to mint a token when -token is empty")
		tripID   = flag.Uint("trip", 0, "trip id")
		fromLat  = flag.Float64("from-lat", 5.6037, "start latitude")
		fromLng  = flag.Float64("from-lng", -0.1870, "start longitude")
		toLat    = flag.Float64("to-lat", 5.6500, "end latitude")
		toLng    = flag.Float64("to-lng", -0.2000, "end longitude")
		steps    = flag.Int("steps", 20, "number of samples")
		interval = flag.Duration("interval", 3*time.Second, "delay between samples")
	)
	flag.Parse()

	log := logrus.New()
	if *tripID == 0 {
		log.Fatal("-trip is required")
	}
	if *token == "" {
		if *driverID == 0 {
			log.Fatal("either -token or -driver is required")
		}
		user := &models.User{UserType: string(models.UserTypeDriver)}
		user.ID = *driverID
		minted, err := utils.GenerateToken(user)
		if err != nil {
			log.Fatalf("failed to mint token: %v", err)
		}
		*token = minted
	}

	client := &http.Client{Timeout: 10 * time.Second}
	url := fmt.Sprintf("%s/api/trips/%d/location", *baseURL, *tripID)

	for i := 0; i <= *steps; i++ {
		t := float64(i) / float64(*steps)
		lat := *fromLat + (*toLat-*fromLat)*t
		lng := *fromLng + (*toLng-*fromLng)*t

		if err := postLocation(client, url, *token, lat, lng); err != nil {
			log.WithError(err).Error("sample rejected")
		} else {
			log.WithFields(logrus.Fields{"step": i, "lat": lat, "lng": lng}).Info("sample sent")
		}

		if i < *steps {
			time.Sleep(*interval)
		}
	}
}

func postLocation(client *http.Client, url, token string, lat, lng float64) error {
	body, _ := json.Marshal(map[string]float64{"lat": lat, "lng": lng})
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	return nil
}

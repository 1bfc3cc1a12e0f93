package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"railbook/internal/config"
	"railbook/internal/database"
	"railbook/internal/domain"
	"railbook/internal/pkg/logger"
	"railbook/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const sampleStations = `station_code,station_name,latitude,longitude
NDLS,New Delhi,28.6430,77.2194
CSMT,Mumbai CST,18.9398,72.8355
MMCT,Mumbai Central,18.9690,72.8205
PUNE,Pune Junction,18.5286,73.8743
TNA,Thane,19.1860,72.9759
KYN,Kalyan Junction,19.2354,73.1300
LNL,Lonavala,18.7500,73.4070
HWH,Howrah Junction,22.5839,88.3425
MAS,Chennai Central,13.0827,80.2750
SBC,KSR Bengaluru,12.9784,77.5710
ADI,Ahmedabad Junction,23.0258,72.6009
`

const sampleTrains = `train_no,train_name,source,destination,departure,arrival,class_code,class_name,seats,tatkaal_seats
12951,Mumbai Rajdhani,Mumbai Central,New Delhi,17:00,08:32,1A,First AC,24,0
12951,Mumbai Rajdhani,Mumbai Central,New Delhi,17:00,08:32,2A,AC 2 Tier,96,16
12951,Mumbai Rajdhani,Mumbai Central,New Delhi,17:00,08:32,3A,AC 3 Tier,256,48
11007,Deccan Express,Pune Junction,Mumbai CST,07:15,11:05,SL,Sleeper,288,64
11007,Deccan Express,Pune Junction,Mumbai CST,07:15,11:05,2S,Second Sitting,300,60
12127,Intercity Express,Mumbai CST,Pune Junction,06:40,09:57,CC,AC Chair Car,156,30
12127,Intercity Express,Mumbai CST,Pune Junction,06:40,09:57,2S,Second Sitting,400,80
12839,Chennai Mail,Howrah Junction,Chennai Central,23:45,04:30,SL,Sleeper,576,120
12839,Chennai Mail,Howrah Junction,Chennai Central,23:45,04:30,3A,AC 3 Tier,192,32
12009,Shatabdi Express,Mumbai Central,Ahmedabad Junction,06:20,12:45,CC,AC Chair Car,312,60
`

type demoUser struct {
	username string
	password string
}

var demoUsers = []demoUser{
	{username: "demo", password: "demo123"},
	{username: "traveller", password: "traveller123"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger.Setup(cfg.AppEnv, cfg.LogLevel)

	writeIfMissing(cfg.StationsCSV, sampleStations)
	writeIfMissing(cfg.TrainsCSV, sampleTrains)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("database: %v", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	if err := users.Migrate(ctx); err != nil {
		logrus.Fatalf("migrate: %v", err)
	}

	for _, du := range demoUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(du.password), bcrypt.DefaultCost)
		if err != nil {
			logrus.Fatalf("hash password: %v", err)
		}
		h := string(hash)
		err = users.Create(ctx, &domain.User{Username: du.username, PasswordHash: &h})
		switch {
		case errors.Is(err, repository.ErrDuplicateUser):
			logrus.WithField("username", du.username).Info("demo user already exists")
		case err != nil:
			logrus.Fatalf("create %s: %v", du.username, err)
		default:
			logrus.WithField("username", du.username).Info("demo user created")
		}
	}

	logrus.Info("seed completed")
}

func writeIfMissing(path, content string) {
	if _, err := os.Stat(path); err == nil {
		logrus.WithField("path", path).Info("reference file exists, leaving it alone")
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logrus.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		logrus.Fatalf("write %s: %v", path, err)
	}
	logrus.WithField("path", path).Info("sample reference file written")
}

package bootstrap

import (
	"log"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Activity{},
		&entity.Completion{},
		&entity.Streak{},
		&entity.BadgeDefinition{},
		&entity.BadgeAward{},
		&entity.Challenge{},
		&entity.ChallengeMembership{},
		&entity.Notification{},
	)
}

// DemoActivities is the starter catalog used on development databases.
var DemoActivities = []entity.Activity{
	{Name: "Bike to work or school", Description: "Ride a bicycle instead of a motor vehicle", Category: entity.CategoryTransport, Points: 20, Icon: "bike"},
	{Name: "Walk short distances", Description: "Walk for trips under 2 km", Category: entity.CategoryTransport, Points: 15, Icon: "walk"},
	{Name: "Take public transport", Description: "Use the bus, train or metro", Category: entity.CategoryTransport, Points: 25, Icon: "bus"},
	{Name: "Switch off unused lights", Description: "Turn off lights when leaving a room", Category: entity.CategoryEnergy, Points: 10, Icon: "bulb"},
	{Name: "Shut down your computer", Description: "Power off instead of leaving it on standby overnight", Category: entity.CategoryEnergy, Points: 15, Icon: "computer"},
	{Name: "Bring a cloth bag", Description: "Refuse single-use plastic bags when shopping", Category: entity.CategoryWaste, Points: 15, Icon: "bag"},
	{Name: "Sort your waste", Description: "Separate recyclables from general waste", Category: entity.CategoryWaste, Points: 20, Icon: "recycle"},
	{Name: "Skip the plastic straw", Description: "Drink without a disposable straw", Category: entity.CategoryWaste, Points: 10, Icon: "straw"},
	{Name: "Take a short shower", Description: "Keep your shower under 5 minutes", Category: entity.CategoryWater, Points: 10, Icon: "shower"},
	{Name: "Turn off the tap while brushing", Description: "Save water while brushing your teeth", Category: entity.CategoryWater, Points: 10, Icon: "faucet"},
	{Name: "Plant a tree", Description: "Plant a tree or a potted plant", Category: entity.CategoryGreen, Points: 30, Icon: "tree"},
	{Name: "Buy recycled products", Description: "Choose products made from recycled materials", Category: entity.CategoryConsumption, Points: 15, Icon: "cart"},
}

type demoUser struct {
	username string
	fullName string
	points   int
}

var demoUsers = []demoUser{
	{username: "user", fullName: "Demo User", points: 150},
	{username: "khoa_zo", fullName: "Khoa Zo", points: 280},
	{username: "eco_lover", fullName: "Eco Lover", points: 520},
	{username: "green_hero", fullName: "Green Hero", points: 350},
}

func SeedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.User{}).
		Where("username = ?", "admin").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	admin := entity.User{
		Username: "admin",
		Email:    "admin@ecotrack.local",
		FullName: "Administrator",
		Role:     entity.RoleAdmin,
		Level:    1,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("✅ Admin user seeded successfully")
	log.Printf("   ID: %s (issue a token with POST /api/admin/users/:id/token)", admin.ID)

	return nil
}

// SeedDemoData fills an empty database with a few users and the starter catalog.
func SeedDemoData(db *gorm.DB) error {
	for _, u := range demoUsers {
		var count int64
		if err := db.Model(&entity.User{}).
			Where("username = ?", u.username).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		user := entity.User{
			Username: u.username,
			Email:    u.username + "@ecotrack.local",
			FullName: u.fullName,
			Role:     entity.RoleUser,
			Points:   u.points,
			Level:    engine.LevelFor(u.points),
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
	}

	var activities int64
	if err := db.Model(&entity.Activity{}).Count(&activities).Error; err != nil {
		return err
	}
	if activities == 0 {
		catalog := make([]entity.Activity, len(DemoActivities))
		copy(catalog, DemoActivities)
		for i := range catalog {
			catalog[i].IsActive = true
		}
		if err := db.Create(&catalog).Error; err != nil {
			return err
		}
		log.Printf("✅ Seeded %d activities", len(catalog))
	}

	return nil
}

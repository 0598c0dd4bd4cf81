package main

import "github.com/Badsnus/festival-booking/internal/domain/dto"

var sampleEvents = []dto.EventInput{
	{
		ClassName:       "Class 1A",
		Grade:           "Year 1",
		EventName:       "Escape room",
		Description:     "A full escape game set in a classroom. Work as a team to solve the puzzles.",
		Location:        "Room 1A",
		Tags:            []string{"puzzle", "team", "hands-on"},
		MaxCapacity:     6,
		DurationMinutes: 30,
	},
	{
		ClassName:       "Class 2B",
		Grade:           "Year 2",
		EventName:       "Programming workshop",
		Description:     "Build a small game in Scratch. Beginners welcome.",
		Location:        "Computer lab 1",
		Tags:            []string{"programming", "workshop", "learning"},
		MaxCapacity:     12,
		DurationMinutes: 45,
	},
	{
		ClassName:       "Class 3C",
		Grade:           "Year 3",
		EventName:       "Drive a robot",
		Description:     "Take the controls of robots built by our students.",
		Location:        "Robotics workshop",
		Tags:            []string{"robots", "technology", "hands-on"},
		MaxCapacity:     4,
		DurationMinutes: 20,
	},
	{
		ClassName:       "Class 4D",
		Grade:           "Year 4",
		EventName:       "Cafe and snacks",
		Description:     "Homemade drinks and light meals. Takeaway available.",
		Location:        "Room 4D",
		Tags:            []string{"cafe", "food", "drinks"},
		MaxCapacity:     20,
		DurationMinutes: 60,
	},
	{
		ClassName:       "Class 5E",
		Grade:           "Year 5",
		EventName:       "Graduation research talks",
		Description:     "Final-year students present their graduation research.",
		Location:        "Main lecture hall",
		Tags:            []string{"research", "talks"},
		MaxCapacity:     50,
		DurationMinutes: 30,
	},
}

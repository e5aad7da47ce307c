package memory

import "impostor-service/domain"

// SampleSubjects mirrors the pool seeded into Postgres.
func SampleSubjects() []domain.Subject {
	names := []struct{ name, category string }{
		{"Lion", "Animals"}, {"Penguin", "Animals"}, {"Octopus", "Animals"}, {"Giraffe", "Animals"},
		{"Pizza", "Food"}, {"Sushi", "Food"}, {"Baklava", "Food"}, {"Pancake", "Food"},
		{"Hospital", "Places"}, {"Airport", "Places"}, {"Library", "Places"}, {"Beach", "Places"},
		{"Guitar", "Objects"}, {"Umbrella", "Objects"}, {"Telescope", "Objects"},
		{"Firefighter", "Jobs"}, {"Astronaut", "Jobs"}, {"Chef", "Jobs"},
	}
	subjects := make([]domain.Subject, len(names))
	for i, n := range names {
		subjects[i] = domain.Subject{ID: int64(i + 1), Name: n.name, Category: n.category}
	}
	return subjects
}

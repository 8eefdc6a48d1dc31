package predictor

// Sample is one labeled training example. Label is 1 for high stress.
type Sample struct {
	Features []float64
	Label    float64
}

// trainingRow keeps the raw dataset readable; rows are converted to feature
// vectors by TrainingData.
type trainingRow struct {
	level int
	note  string
	label float64
}

// The static training set. Roughly one hundred rows of self-reported mood
// entries with a manual high-stress label, carried over unchanged between
// releases so retraining stays reproducible.
var trainingRows = []trainingRow{
	{1, "completely overwhelmed by exams, cannot cope with everything", 1},
	{1, "panic attack before my test, so scared and alone", 1},
	{1, "crying all night, hopeless and exhausted", 1},
	{1, "deadline pressure is breaking me, no sleep at all", 1},
	{1, "everything is terrible, i feel empty and drained", 1},
	{1, "so anxious about grades i feel sick", 1},
	{1, "furious and miserable, nobody listens to me", 1},
	{1, "insomnia again, nightmare after nightmare", 1},
	{1, "worst week ever, stressed and isolated", 1},
	{1, "drowning in homework, swamped and afraid", 1},
	{1, "headache all day, awful and tense", 1},
	{1, "ignored by my friends, lonely and sad", 1},
	{1, "", 1},
	{2, "stressed about the assignment, very nervous", 1},
	{2, "tired and worried about work", 1},
	{2, "feeling down, studying is too much pressure", 1},
	{2, "angry at myself, rough day at my job", 1},
	{2, "anxiety is back, could not sleep", 1},
	{2, "sad and weary, exams are close", 1},
	{2, "frustrated with class, everything annoys me", 1},
	{2, "bad headache, nauseous before the test", 1},
	{2, "overloaded with assignments, strained", 1},
	{2, "feel alone in this, nobody gets it", 1},
	{2, "miserable weather, miserable mood", 1},
	{2, "exhausted after work, restless night", 1},
	{2, "", 1},
	{2, "scared i will fail my exams", 1},
	{2, "irritated and tense the whole day", 1},
	{3, "nervous about the exam but studied a lot", 1},
	{3, "work was stressful today, pretty drained", 1},
	{3, "a bit anxious about my grades", 1},
	{3, "tired, too much homework this week", 1},
	{3, "worried about a deadline, otherwise okay", 1},
	{3, "slightly overwhelmed, trying to cope", 1},
	{3, "headache from studying too long", 1},
	{3, "felt lonely this afternoon", 1},
	{3, "annoyed at class, but it passed", 0},
	{3, "", 0},
	{3, "okay day, nothing special", 0},
	{3, "average day, some work, some rest", 0},
	{3, "met a friend for lunch, then studying", 0},
	{3, "class was fine, a little tired", 0},
	{3, "quiet day, did my assignment early", 0},
	{3, "neutral mood, talked with family", 0},
	{3, "went for a walk, felt calm after", 0},
	{4, "good day, finished my homework early", 0},
	{4, "relaxed evening with friends", 0},
	{4, "happy with my test result", 0},
	{4, "calm and content after yoga", 0},
	{4, "nice dinner with family, laughed a lot", 0},
	{4, "productive at work, feeling fine", 0},
	{4, "great workout, slept well", 0},
	{4, "grateful for my friends today", 0},
	{4, "peaceful morning, good coffee", 0},
	{4, "excited about the weekend trip", 0},
	{4, "", 0},
	{4, "proud of my assignment grade", 0},
	{4, "talked with an old friend, felt good", 0},
	{4, "a little tired but happy overall", 0},
	{5, "amazing day, everything went great", 0},
	{5, "so happy and grateful, best week ever", 0},
	{5, "relaxed all day, totally at peace", 0},
	{5, "celebrated with friends, pure joy", 0},
	{5, "aced my exams, feeling proud and excited", 0},
	{5, "wonderful family weekend, very thankful", 0},
	{5, "calm, rested, and content", 0},
	{5, "got the job, thrilled and blessed", 0},
	{5, "", 0},
	{5, "great party, laughed until midnight", 0},
	{5, "finished everything early, so relaxed", 0},
	{5, "happy birthday surprise from friends", 0},
	{1, "cannot stop worrying, afraid of everything", 1},
	{1, "furious argument with family, crying after", 1},
	{2, "dizzy and sick, skipped class again", 1},
	{2, "nightmare woke me up, anxious since", 1},
	{2, "pressure at my job is getting worse", 1},
	{3, "mild worry about the homework deadline", 1},
	{3, "tense morning, calm evening", 0},
	{3, "studying with friends made it easier", 0},
	{4, "no stress today, just good music", 0},
	{4, "appreciate the small things lately", 0},
	{5, "peaceful, grateful, happy", 0},
	{1, "burnout is real, drained and hopeless", 1},
	{1, "so much pain, awful migraine all week", 1},
	{2, "alone again on the weekend, feeling empty", 1},
	{2, "scared about results, restless and weary", 1},
	{3, "bit of pressure at work, manageable", 1},
	{3, "plain day, did chores and rested", 0},
	{4, "sunny walk, peaceful mind", 0},
	{4, "helped a friend, felt useful and content", 0},
	{5, "everything is fine, truly relaxed", 0},
	{5, "joyful day at the lake with family", 0},
	{1, "swamped, strained, and completely exhausted", 1},
	{2, "irritated, overloaded, and sleepless", 1},
	{3, "fine morning, nervous afternoon", 1},
	{4, "quiet gratitude, slept really well", 0},
	{5, "best mood in months, thankful for it", 0},
}

// TrainingData converts the raw rows to feature vectors.
func TrainingData() []Sample {
	samples := make([]Sample, 0, len(trainingRows))
	for _, row := range trainingRows {
		samples = append(samples, Sample{
			Features: Extract(row.level, row.note),
			Label:    row.label,
		})
	}
	return samples
}

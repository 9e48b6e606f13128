package scholar

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Term is a search query together with the catalog category it came
// from. The category seeds classification when keyword scoring finds
// nothing better.
type Term struct {
	Query    string
	Category string
}

type termCategory struct {
	name  string
	terms []string
}

var searchCategories = []termCategory{
	{
		name: "Machine Learning & AI",
		terms: []string{
			"machine learning algorithms",
			"deep learning neural networks",
			"artificial intelligence applications",
			"reinforcement learning systems",
			"generative AI models",
			"transformer architectures",
			"computer vision deep learning",
			"natural language processing transformers",
		},
	},
	{
		name: "Software Engineering",
		terms: []string{
			"software engineering practices",
			"DevOps continuous integration",
			"microservices architecture",
			"software testing methodologies",
			"code quality analysis",
			"agile software development",
			"software design patterns",
			"programming languages comparison",
		},
	},
	{
		name: "Systems & Networks",
		terms: []string{
			"distributed systems design",
			"cloud computing architecture",
			"network security protocols",
			"database systems performance",
			"operating systems research",
			"blockchain technology applications",
			"edge computing frameworks",
			"container orchestration",
		},
	},
	{
		name: "Cybersecurity",
		terms: []string{
			"cybersecurity threat detection",
			"cryptography algorithms",
			"network intrusion detection",
			"privacy preserving techniques",
			"security vulnerability analysis",
			"zero trust architecture",
			"IoT security frameworks",
			"quantum cryptography",
		},
	},
	{
		name: "Human-Computer Interaction",
		terms: []string{
			"user experience design",
			"human computer interaction",
			"virtual reality interfaces",
			"augmented reality applications",
			"accessibility technology",
			"mobile user interfaces",
			"conversational AI interfaces",
			"gesture recognition systems",
		},
	},
	{
		name: "Data Science & Analytics",
		terms: []string{
			"big data analytics",
			"data mining techniques",
			"statistical learning methods",
			"data visualization methods",
			"time series analysis",
			"recommender systems",
			"knowledge discovery databases",
			"predictive analytics models",
		},
	},
	{
		name: "Emerging Technologies",
		terms: []string{
			"quantum computing algorithms",
			"Internet of Things platforms",
			"autonomous vehicle systems",
			"robotic process automation",
			"digital twin technology",
			"neuromorphic computing",
			"biometric authentication",
			"smart city technologies",
		},
	},
}

// Planner rotates the term catalog so repeated runs spread their
// queries across categories instead of hammering the same few.
type Planner struct {
	mu            sync.Mutex
	categoryUsage map[string]int
	termUsage     map[string]int
	now           func() time.Time
}

func NewPlanner() *Planner {
	return &Planner{
		categoryUsage: make(map[string]int),
		termUsage:     make(map[string]int),
		now:           time.Now,
	}
}

// Next returns up to max terms. Least-used categories come first, and
// within a category unused terms are served before reused ones.
func (p *Planner) Next(max int) []Term {
	p.mu.Lock()
	defer p.mu.Unlock()

	if max <= 0 {
		return nil
	}

	ordered := make([]termCategory, len(searchCategories))
	copy(ordered, searchCategories)
	sort.SliceStable(ordered, func(i, j int) bool {
		return p.categoryUsage[ordered[i].name] < p.categoryUsage[ordered[j].name]
	})

	perCategory := max / len(ordered)
	if perCategory < 1 {
		perCategory = 1
	}

	var selected []Term
	for _, cat := range ordered {
		if len(selected) >= max {
			break
		}

		var unused, used []string
		for _, term := range cat.terms {
			if p.termUsage[term] == 0 {
				unused = append(unused, term)
			} else {
				used = append(used, term)
			}
		}

		pool := unused
		if len(pool) == 0 {
			sort.SliceStable(used, func(i, j int) bool {
				return p.termUsage[used[i]] < p.termUsage[used[j]]
			})
			pool = used
		}

		take := perCategory
		if remaining := max - len(selected); take > remaining {
			take = remaining
		}
		if take > len(pool) {
			take = len(pool)
		}

		for _, term := range pool[:take] {
			selected = append(selected, Term{Query: term, Category: cat.name})
			p.termUsage[term]++
		}
		p.categoryUsage[cat.name] += take
	}

	return selected
}

// TimeBased returns the current-year queries appended to every run.
// Their categories are never used as classification fallbacks.
func (p *Planner) TimeBased() []Term {
	year := p.now().Year()

	return []Term{
		{Query: fmt.Sprintf("computer science research %d", year), Category: "Recent Research"},
		{Query: fmt.Sprintf("artificial intelligence %d", year), Category: "Current AI"},
		{Query: fmt.Sprintf("software engineering trends %d", year), Category: "Current SE"},
	}
}

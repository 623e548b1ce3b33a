package codegen

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Target describes one generation job: where the prompt lives, where the
// generated file goes and the role given to the model.
type Target struct {
	Name          string `yaml:"name"`
	PromptPath    string `yaml:"prompt_path"`
	OutputPath    string `yaml:"output_path"`
	SystemMessage string `yaml:"system_message"`
}

type targetFile struct {
	Targets []Target `yaml:"targets"`
}

// DefaultTargets is the built-in generation table
func DefaultTargets() []Target {
	return []Target{
		// Django backend
		{"django_models", "backend/prompts/django_models_prompt.txt", "backend/django_risk_app/risk_metrics/models.py", "You are a professional Django engineer."},
		{"django_serializers", "backend/prompts/django_serializers_prompt.txt", "backend/django_risk_app/risk_metrics/serializers.py", "You are a professional Django REST Framework engineer."},
		{"django_views", "backend/prompts/django_views_prompt.txt", "backend/django_risk_app/risk_metrics/views.py", "You are a professional Django REST Framework engineer."},
		{"django_urls", "backend/prompts/django_urls_prompt.txt", "backend/django_risk_app/risk_metrics/urls.py", "You are a professional Django URL configuration engineer."},
		{"django_models_test", "backend/prompts/django_models_test_prompt.txt", "backend/django_risk_app/risk_metrics/tests/test_models.py", "You are a professional Django test engineer, skilled with Django TestCase."},
		{"django_serializers_test", "backend/prompts/django_serializers_test_prompt.txt", "backend/django_risk_app/risk_metrics/tests/test_serializers.py", "You are a professional Django test engineer, skilled with Django REST Framework test tools."},
		{"django_views_test", "backend/prompts/django_views_test_prompt.txt", "backend/django_risk_app/risk_metrics/tests/test_views.py", "You are a professional Django test engineer, skilled with Django REST Framework APITestCase."},
		// FastAPI backend
		{"fastapi_main_test", "backend/prompts/fastapi_main_test_prompt.txt", "backend/fastapi_etl_service/tests/test_main.py", "You are a professional FastAPI test engineer, skilled with TestClient."},
		// React frontend
		{"react_component", "frontend-react/prompts/react_component_prompt.txt", "frontend-react/src/components/PortfolioRiskDisplay.js", "You are a professional React developer, skilled with Tailwind CSS."},
		{"react_component_test", "frontend-react/prompts/react_component_test_prompt.txt", "frontend-react/src/components/__tests__/PortfolioRiskDisplay.test.jsx", "You are a professional React test engineer, skilled with React Testing Library and Jest."},
		// Flutter app
		{"flutter_widget", "flutter-app/prompts/flutter_widget_prompt.txt", "flutter-app/lib/widgets/risk_metric_card.dart", "You are a professional Flutter developer, skilled with Material Design."},
		{"flutter_widget_test", "flutter-app/prompts/flutter_widget_test_prompt.txt", "flutter-app/integration_test/risk_metric_card_test.dart", "You are a professional Flutter test engineer, skilled with flutter_test and integration_test."},
	}
}

// LoadTargets reads a generation table from a YAML file
func LoadTargets(path string) ([]Target, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets file %s: %w", path, err)
	}

	var file targetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse targets file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Targets))
	for i, t := range file.Targets {
		if t.Name == "" || t.PromptPath == "" || t.OutputPath == "" {
			return nil, fmt.Errorf("target %d in %s: name, prompt_path and output_path are required", i, path)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("target %q defined twice in %s", t.Name, path)
		}
		seen[t.Name] = true
	}
	return file.Targets, nil
}

// Names returns the sorted target names
func Names(targets []Target) []string {
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

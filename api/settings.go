package api

type Settings struct {
	BlogTitle          string `json:"blogTitle"`
	BlogDescription    string `json:"blogDescription"`
	ProfileName        string `json:"profileName"`
	ProfileDescription string `json:"profileDescription"`
	Sha                string `json:"sha,omitempty"`
}

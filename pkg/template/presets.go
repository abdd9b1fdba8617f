package template

// Built-in templates for the MICO service and application views.

// Builtin is used when neither the node type nor "default" is registered.
var Builtin = Template{
	ID: "builtin",
	Markup: `<circle class="outline" r="20" cx="0" cy="0" data-link-handles="all"></circle>
<text class="text title" data-content="title" data-click="title" width="36" x="-18" y="4" font-size="8"></text>`,
}

// ServiceNode is the default node template of dependency views.
var ServiceNode = Template{
	ID: DefaultID,
	Markup: `<rect class="outline" width="100" height="60" x="-50" y="-30" data-link-handles="edges"></rect>
<text class="text title" data-content="title" data-click="title" width="90" x="-45" y="-16" font-size="10.667" text-overflow="ellipsis" word-break="break-all"></text>
<text class="text description" data-content="description" data-click="description" width="90" height="30" x="-45" y="-5" font-size="8" text-overflow="ellipsis" word-break="break-word"></text>
<text class="text version" data-content="version" data-click="version" width="40" x="-45" y="25" font-size="8" text-overflow="ellipsis" word-break="break-all"></text>`,
}

// ApplicationNode is the root node template of application views.
var ApplicationNode = Template{
	ID: "application",
	Markup: `<polygon class="outline" points="-49,-15 0,-15 49,-15 58,0 49,15 0,15 -49,15 -58,0" data-link-handles="corners"></polygon>
<text class="text title" data-content="title" data-click="title" width="90" x="-45" y="-3" font-size="10.667" text-overflow="ellipsis" word-break="break-all"></text>`,
}

// ArrowMarker is the arrow head drawn at edge ends.
var ArrowMarker = Template{
	ID:     "arrow",
	Markup: `<path d="M -9 -5 L 1 0 L -9 5 z"></path>`,
}

// Stylesheet is the CSS embedded into rendered graphs.
const Stylesheet = `
.ghost { opacity: 0.5; }
.node { fill: #cccccc; }
.node.root { fill: #005c99; }
.link-handle { display: none; fill: black; opacity: 0.1; }
.text { fill: black; font-family: sans-serif; }
.root .text { fill: white; }
.text.title { text-decoration: underline; }
.node.direct-dependency .text.version { cursor: pointer; }
.node.direct-dependency:not(.selected).hovered { fill: #efefef; }
.node.root.hovered { fill: #0099ff; }
.node.selected { fill: #ccff99; }
.editable .link-handle { display: initial; }
.edge { fill: none; stroke: #333333; }
.includes .edge { stroke: #0099ff; stroke-width: 2; stroke-linecap: round; }
.includes .marker { fill: #0099ff; }
.highlight-outgoing .edge { stroke: red; }
.highlight-incoming .edge { stroke: green; }
.highlight-outgoing .marker { fill: red; }
.highlight-incoming .marker { fill: green; }
`

// ServiceViewNodes returns the node templates of the service dependency view.
func ServiceViewNodes() []Template { return []Template{ServiceNode} }

// ApplicationViewNodes returns the node templates of the application view.
func ApplicationViewNodes() []Template { return []Template{ServiceNode, ApplicationNode} }

// Markers returns the built-in marker templates.
func Markers() []Template { return []Template{ArrowMarker} }

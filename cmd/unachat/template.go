package main

const indexTpl = `<!DOCTYPE html>
<html>
<head>
    <title>Unachat</title>
    <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no">
    <link rel="stylesheet" href="//maxcdn.bootstrapcdn.com/bootstrap/latest/css/bootstrap.min.css">
    {{range .Feeds}}<link rel="alternate" type="application/rss+xml" href="{{.}}">
    {{end}}
    <style>
        #messages { height: 60vh; overflow-y: auto; }
        .media-container { margin-top: .5em; }
        .media-container img, .media-container video { max-width: 100%; }
    </style>
</head>
<body>
<div class="container">
    <div class="jumbotron">
        <h2>Unachat
            <small>by Nomadic</small>
        </h2>
        <p class="lead">Chat with links, images and videos</p>
    </div>
    <div class="card bg-light">
        <div class="card-body">
            <ul id="messages" class="list-unstyled"></ul>
            <p id="typing" class="text-muted small"></p>
            <form id="form" class="form-inline">
                <input id="nombre" class="form-control mr-2" placeholder="Nombre" autocomplete="off">
                <input id="mensaje" class="form-control mr-2 flex-grow-1" maxlength="{{.MaxLength}}" autocomplete="off">
                <button class="btn btn-primary">Enviar</button>
            </form>
        </div> <!-- card-body -->
    </div> <!-- card -->
    <footer>
        <div style="text-align: center;"><p>{{range .Feeds}}<a href="{{.}}">RSS</a> {{end}}<a href="https://github.com/n0madic/unachat">GitHub</a></p></div>
    </footer>
</div> <!-- container -->
<script>
(function() {
    var path = {{.Socket}};
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var socket = new WebSocket(proto + location.host + path);
    var messages = document.getElementById("messages");
    var typing = document.getElementById("typing");
    var nombre = document.getElementById("nombre");
    var mensaje = document.getElementById("mensaje");
    var timer = null;

    function emit(event, data) {
        if (socket.readyState === WebSocket.OPEN) {
            socket.send(JSON.stringify({event: event, data: data}));
        }
    }

    socket.onmessage = function(e) {
        var frame = JSON.parse(e.data);
        var data = frame.data || {};
        switch (frame.event) {
        case "chat message":
            var li = document.createElement("li");
            var who = document.createElement("strong");
            who.innerHTML = data.nombre;
            who.style.color = data.color;
            var when = document.createElement("small");
            when.className = "text-muted ml-2";
            when.textContent = new Date(data.timestamp).toLocaleTimeString();
            var body = document.createElement("div");
            body.innerHTML = data.mensaje;
            li.appendChild(who);
            li.appendChild(when);
            li.appendChild(body);
            messages.appendChild(li);
            messages.scrollTop = messages.scrollHeight;
            typing.textContent = "";
            break;
        case "typing":
            typing.textContent = data.username + " está escribiendo...";
            break;
        case "stop typing":
            typing.textContent = "";
            break;
        case "error":
            alert(data.message);
            break;
        }
    };

    mensaje.addEventListener("input", function() {
        emit("typing", {username: nombre.value});
        clearTimeout(timer);
        timer = setTimeout(function() { emit("stop typing"); }, 1000);
    });

    document.getElementById("form").addEventListener("submit", function(e) {
        e.preventDefault();
        if (!mensaje.value) {
            return;
        }
        emit("chat message", {nombre: nombre.value, mensaje: mensaje.value});
        emit("stop typing");
        mensaje.value = "";
    });
})();
</script>
</body>
</html>`
